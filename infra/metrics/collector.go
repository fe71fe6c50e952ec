package metrics

import (
	"context"
	"sync"

	coremetrics "github.com/kilianp07/evcorridor/core/metrics"
	"github.com/kilianp07/evcorridor/infra/logger"
	"github.com/kilianp07/evcorridor/internal/eventbus"
)

// StartEventCollector subscribes to the progress bus and forwards samples to
// sink when it records progress. It stops when the context is canceled or
// the bus is closed; the returned function waits for that.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[coremetrics.ProgressEvent], sink coremetrics.MetricsSink) (wait func()) {
	rec, ok := sink.(coremetrics.ProgressRecorder)
	if bus == nil || !ok {
		return func() {}
	}
	log := logger.New("event-collector")
	sub := bus.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := rec.RecordProgress(ev); err != nil {
					log.Warnf("record progress %s: %v", ev.Name, err)
				}
			}
		}
	}()
	return wg.Wait
}
