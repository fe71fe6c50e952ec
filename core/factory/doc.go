// Package factory is a generic registry that builds modules from
// configuration. A module is a type name plus a map of raw settings; the
// registered constructor decodes the settings with Decode, which honours
// json tags and weak typing so values from YAML, JSON or the environment all
// fit.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	_ = reg.Register("sqlite", func(conf map[string]any) (metrics.MetricsSink, error) {
//		var c struct{ Path string `json:"path"` }
//		if err := factory.Decode(conf, &c); err != nil {
//			return nil, err
//		}
//		return store.NewSQLiteStore(c.Path)
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "runs.db"}})
package factory
