package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/evcorridor/core/car"
	"github.com/kilianp07/evcorridor/core/simulation"
)

// maxChartPoints bounds the samples per series; longer runs are decimated.
const maxChartPoints = 2000

// WriteTimeline renders an HTML line chart of the number of cars in each
// non-terminal state over time.
func WriteTimeline(w io.Writer, title string, snaps []simulation.Snapshot) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (min)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Cars"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Top: "30"}),
	)

	step := 1
	if len(snaps) > maxChartPoints {
		step = (len(snaps) + maxChartPoints - 1) / maxChartPoints
	}
	var xAxis []string
	series := make(map[car.State][]opts.LineData)
	for i := 0; i < len(snaps); i += step {
		s := snaps[i]
		xAxis = append(xAxis, fmt.Sprintf("%.0f", s.ElapsedS/60))
		for _, st := range car.States() {
			if !st.Terminal() {
				series[st] = append(series[st], opts.LineData{Value: s.States[st]})
			}
		}
	}

	line.SetXAxis(xAxis)
	for _, st := range car.States() {
		if !st.Terminal() {
			line.AddSeries(st.String(), series[st])
		}
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
