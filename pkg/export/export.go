// Package export writes simulation reports as CSV, JSON and HTML.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/kilianp07/evcorridor/core/car"
	"github.com/kilianp07/evcorridor/core/model"
	"github.com/kilianp07/evcorridor/core/simulation"
	"github.com/kilianp07/evcorridor/core/stats"
)

// Comma separates CSV fields, matching the input data files.
const Comma = ';'

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = Comma
	return cw
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func ftoa2(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func minutes(s float64) string { return ftoa2(s / 60) }

// WriteStatistics writes the run summary, the per-state table and the
// segment traffic table.
func WriteStatistics(w io.Writer, cfg simulation.Config, rep stats.Report) error {
	cw := newWriter(w)
	res := rep.Result
	rows := [][]string{
		{"cars", strconv.Itoa(cfg.CarCount)},
		{"std_dev_s", ftoa(cfg.StdDevSeconds)},
		{"elapsed_s", ftoa(res.ElapsedS)},
		{"ticks", strconv.Itoa(res.Ticks)},
		{"injected", strconv.Itoa(res.Injected)},
		{"not_injected", strconv.Itoa(res.NotInjected)},
		{"reached", strconv.Itoa(res.Reached)},
		{"depleted", strconv.Itoa(res.Depleted)},
		{"incomplete", strconv.FormatBool(res.Incomplete)},
		{},
		{"state", "mean_min_per_car", "share_pct", "median_min"},
	}
	for _, s := range rep.States {
		rows = append(rows, []string{s.State, minutes(s.MeanS), ftoa2(s.Share * 100), minutes(s.MedianS)})
	}
	rows = append(rows, []string{}, []string{"segment", "cars", "share_pct", "peak_on_road", "peak_waiting", "peak_chargers_in_use"})
	for _, s := range rep.Segments {
		rows = append(rows, []string{
			s.Segment, strconv.Itoa(s.Cars), ftoa2(s.Share * 100),
			strconv.Itoa(s.PeakOnRoad), strconv.Itoa(s.PeakWaiting), strconv.Itoa(s.PeakInUse),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteCarModels writes one row per car model. Specifications come from
// catalog; models missing from it are written with empty columns.
func WriteCarModels(w io.Writer, catalog model.Catalog, rep stats.Report) error {
	cw := newWriter(w)
	if err := cw.Write([]string{
		"model", "cars", "capacity_kwh", "max_ac_kw", "max_dc_kw", "efficiency_kwh_per_100km",
		"reached", "depleted", "charges_per_100km", "trip_min", "charging_min", "waiting_min",
	}); err != nil {
		return err
	}
	for _, t := range rep.Types {
		rec := []string{t.Type, strconv.Itoa(t.Cars), "", "", "", ""}
		if ct, ok := catalog.Lookup(t.Type); ok {
			rec[2], rec[3], rec[4], rec[5] = ftoa(ct.Capacity), ftoa(ct.MaxAC), ftoa(ct.MaxDC), ftoa(ct.Efficiency)
		}
		per100 := 0.0
		if t.MeanRouteKm > 0 {
			per100 = t.MeanCharges / t.MeanRouteKm * 100
		}
		rec = append(rec,
			strconv.Itoa(t.Reached), strconv.Itoa(t.Depleted), ftoa2(per100),
			minutes(t.MeanTripS), minutes(t.MeanChargingS), minutes(t.MeanWaitingS))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCars writes one row per car with its minutes in every state.
func WriteCars(w io.Writer, cars []simulation.CarView) error {
	cw := newWriter(w)
	header := []string{"id", "model", "route", "route_km", "driven_km", "final_state", "battery_kwh", "capacity_kwh", "times_charged", "created_at_s"}
	for _, s := range car.States() {
		header = append(header, s.String()+"_min")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range cars {
		rec := []string{
			strconv.Itoa(c.ID), c.Type, c.RouteName, ftoa2(c.RouteLengthKm), ftoa2(c.DrivenKm),
			c.State.String(), ftoa2(c.BatteryKWh), ftoa(c.CapacityKWh), strconv.Itoa(c.TimesCharged), ftoa(c.CreatedAtS),
		}
		for _, s := range car.States() {
			rec = append(rec, minutes(c.StateTimes[s]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTimeSeries writes one row per tick: state counts, then cars on the
// road, waiting and chargers in use for each segment.
func WriteTimeSeries(w io.Writer, segments []string, snaps []simulation.Snapshot) error {
	cw := newWriter(w)
	header := []string{"tick", "minute"}
	for _, s := range car.States() {
		header = append(header, s.String())
	}
	header = append(header, "total")
	for _, prefix := range []string{"on_road", "waiting", "in_use"} {
		for _, id := range segments {
			header = append(header, prefix+"_"+id)
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, snap := range snaps {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(snap.Tick), minutes(snap.ElapsedS))
		total := 0
		for _, n := range snap.States {
			rec = append(rec, strconv.Itoa(n))
			total += n
		}
		rec = append(rec, strconv.Itoa(total))
		for _, col := range [][]int{snap.CarsOnSegment, snap.WaitingOnSegment, snap.ChargersInUse} {
			for i := range segments {
				rec = append(rec, strconv.Itoa(col[i]))
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
