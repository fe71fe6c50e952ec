package factory

import (
	"testing"
	"time"
)

type sink struct {
	Path  string
	Every time.Duration
}

type sinkConf struct {
	Path  string        `json:"path"`
	Every time.Duration `json:"every"`
	Count int           `json:"count"`
}

func newSink(conf map[string]any) (*sink, error) {
	var c sinkConf
	if err := Decode(conf, &c); err != nil {
		return nil, err
	}
	return &sink{Path: c.Path, Every: c.Every}, nil
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sink]()
	if err := reg.Register("file", newSink); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "file", Conf: map[string]any{"path": "out.csv", "every": "5s"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Path != "out.csv" || inst.Every != 5*time.Second {
		t.Fatalf("unexpected instance %+v", inst)
	}
	if _, err := reg.Create(ModuleConfig{Type: "file"}); err != nil {
		t.Fatalf("create without conf: %v", err)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("z", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[int]()
	for _, n := range []string{"b", "a", "c"} {
		if err := reg.Register(n, func(map[string]any) (int, error) { return 0, nil }); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	got := reg.Names()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestDecode_WeakTypes(t *testing.T) {
	var c sinkConf
	if err := Decode(map[string]any{"count": "12"}, &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Count != 12 {
		t.Fatalf("expected 12 got %d", c.Count)
	}
}
