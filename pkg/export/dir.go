package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/kilianp07/evcorridor/core/logger"
	"github.com/kilianp07/evcorridor/core/simulation"
	"github.com/kilianp07/evcorridor/core/stats"
)

type file struct {
	suffix string
	write  func(w io.Writer, sim *simulation.Simulation, rep stats.Report) error
}

var formats = map[string][]file{
	"csv": {
		{"statistics.csv", func(w io.Writer, sim *simulation.Simulation, rep stats.Report) error {
			return WriteStatistics(w, sim.Config(), rep)
		}},
		{"car_model_statistics.csv", func(w io.Writer, sim *simulation.Simulation, rep stats.Report) error {
			return WriteCarModels(w, sim.Config().Catalog, rep)
		}},
		{"car_statistics.csv", func(w io.Writer, sim *simulation.Simulation, _ stats.Report) error {
			return WriteCars(w, sim.Cars())
		}},
		{"timeseries.csv", func(w io.Writer, sim *simulation.Simulation, _ stats.Report) error {
			return WriteTimeSeries(w, sim.SegmentIDs(), sim.Snapshots())
		}},
	},
	"json": {
		{"report.json", func(w io.Writer, _ *simulation.Simulation, rep stats.Report) error {
			return WriteJSON(w, rep)
		}},
	},
	"html": {
		{"timeline.html", func(w io.Writer, sim *simulation.Simulation, _ stats.Report) error {
			return WriteTimeline(w, sim.Name(), sim.Snapshots())
		}},
	},
}

// Formats lists the supported output formats.
func Formats() []string {
	out := make([]string, 0, len(formats))
	for f := range formats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// DirExporter writes every finished simulation to Dir as
// "<name>-<file>" for each selected format. It is safe for concurrent use
// as long as simulation names are unique.
type DirExporter struct {
	Dir     string
	Formats []string
	Log     logger.Logger
}

// NewDirExporter validates the formats and creates dir.
func NewDirExporter(dir string, formatNames []string, log logger.Logger) (*DirExporter, error) {
	if dir == "" {
		return nil, fmt.Errorf("export: empty output directory")
	}
	for _, f := range formatNames {
		if _, ok := formats[f]; !ok {
			return nil, fmt.Errorf("export: unknown format %q (known: %v)", f, Formats())
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return &DirExporter{Dir: dir, Formats: formatNames, Log: log}, nil
}

// Export writes the files of sim.
func (e *DirExporter) Export(sim *simulation.Simulation, rep stats.Report) error {
	for _, f := range e.Formats {
		for _, out := range formats[f] {
			path := filepath.Join(e.Dir, sim.Name()+"-"+out.suffix)
			if err := writeFile(path, func(w io.Writer) error { return out.write(w, sim, rep) }); err != nil {
				return err
			}
			logger.OrNop(e.Log).Debugf("export: wrote %s", path)
		}
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := fn(f); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
