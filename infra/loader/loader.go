// Package loader reads corridor data files: one semicolon separated file per
// road segment and a traffic volume table.
//
// A segment file starts with a "<label>;<length km>" line and two header
// lines, followed by one row per charger group:
//
//	name;position km;distance from highway km;power kW;count;connector;shop;food;exclusive
//
// Consecutive rows sharing a name belong to the same station. The traffic
// file has one header line followed by "id;label;volume" rows.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"sync"

	"github.com/kilianp07/evcorridor/core/model"
	"github.com/kilianp07/evcorridor/core/route"
	"github.com/kilianp07/evcorridor/core/station"
)

// Loader implements route.SegmentLoader and route.TrafficWeightLoader over a
// file system.
type Loader struct {
	fsys        fs.FS
	trafficFile string

	once    sync.Once
	traffic map[string]float64
	err     error
}

// New returns a loader reading "<segment id>.csv" files and trafficFile from
// fsys.
func New(fsys fs.FS, trafficFile string) *Loader {
	return &Loader{fsys: fsys, trafficFile: trafficFile}
}

// LoadSegment parses the file of segment id.
func (l *Loader) LoadSegment(id string) (route.SegmentData, error) {
	name := id + ".csv"
	f, err := l.fsys.Open(name)
	if err != nil {
		return route.SegmentData{}, err
	}
	defer f.Close()
	d, err := ParseSegment(f)
	if err != nil {
		return route.SegmentData{}, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// TrafficWeight returns the traffic volume of segment id. The traffic file is
// read once.
func (l *Loader) TrafficWeight(id string) (float64, error) {
	l.once.Do(func() {
		f, err := l.fsys.Open(l.trafficFile)
		if err != nil {
			l.err = err
			return
		}
		defer f.Close()
		l.traffic, l.err = ParseTraffic(f)
		if l.err != nil {
			l.err = fmt.Errorf("%s: %w", l.trafficFile, l.err)
		}
	})
	if l.err != nil {
		return 0, l.err
	}
	w, ok := l.traffic[id]
	if !ok {
		return 0, fmt.Errorf("%s: no traffic volume for segment %s", l.trafficFile, id)
	}
	return w, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

// ParseSegment reads one segment file.
func ParseSegment(r io.Reader) (route.SegmentData, error) {
	cr := newReader(r)
	var d route.SegmentData
	head, err := cr.Read()
	if err != nil {
		return d, fmt.Errorf("read length line: %w", err)
	}
	if len(head) < 2 {
		return d, fmt.Errorf("line 1: expected \"label;length\"")
	}
	if d.LengthKm, err = parseFloat(head[1]); err != nil {
		return d, fmt.Errorf("line 1: length: %w", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := cr.Read(); err != nil {
			return d, fmt.Errorf("read header: %w", err)
		}
	}

	var cur *route.StationData
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return d, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 9 {
			return d, fmt.Errorf("line %d: expected 9 fields, got %d", line, len(rec))
		}
		if cur == nil || cur.Name != rec[0] {
			st, err := parseStation(rec)
			if err != nil {
				return d, fmt.Errorf("line %d: %w", line, err)
			}
			d.Stations = append(d.Stations, st)
			cur = &d.Stations[len(d.Stations)-1]
		}
		g, err := parseGroup(rec)
		if err != nil {
			return d, fmt.Errorf("line %d: %w", line, err)
		}
		cur.Chargers = append(cur.Chargers, g)
	}
	return d, nil
}

func parseStation(rec []string) (route.StationData, error) {
	pos, err := parseFloat(rec[1])
	if err != nil {
		return route.StationData{}, fmt.Errorf("position: %w", err)
	}
	dfh, err := parseFloat(rec[2])
	if err != nil {
		return route.StationData{}, fmt.Errorf("distance from highway: %w", err)
	}
	return route.StationData{
		Name:                  rec[0],
		PositionKm:            pos,
		DistanceFromHighwayKm: dfh,
		Amenities: station.Amenities{
			HasShop:           flag(rec[6]),
			HasFood:           flag(rec[7]),
			CustomerExclusive: flag(rec[8]),
		},
	}, nil
}

func parseGroup(rec []string) (route.ChargerGroup, error) {
	power, err := parseFloat(rec[3])
	if err != nil {
		return route.ChargerGroup{}, fmt.Errorf("power: %w", err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(rec[4]))
	if err != nil {
		return route.ChargerGroup{}, fmt.Errorf("count: %w", err)
	}
	typ, err := model.ParseConnector(rec[5])
	if err != nil {
		return route.ChargerGroup{}, err
	}
	return route.ChargerGroup{PowerKW: power, Type: typ, Count: count}, nil
}

// ParseTraffic reads the traffic volume table.
func ParseTraffic(r io.Reader) (map[string]float64, error) {
	cr := newReader(r)
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	out := make(map[string]float64)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 3 {
			return nil, fmt.Errorf("line %d: expected \"id;label;volume\"", line)
		}
		v, err := parseFloat(rec[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: volume: %w", line, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("line %d: negative volume %v", line, v)
		}
		out[strings.TrimSpace(rec[0])] = v
	}
}

// parseFloat accepts a decimal comma.
func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

func flag(s string) bool {
	s = strings.TrimSpace(s)
	return s == "1" || strings.EqualFold(s, "true")
}
