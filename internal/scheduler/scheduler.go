package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/earthdata-action/pm25-predictor/internal/forecast"
)

// Warmer periodically recomputes forecasts for configured cities so that
// cached results are ready before anyone opens the page. Cities run
// sequentially: each uses only one request's worth of outbound calls anyway.
type Warmer struct {
	scheduler   *gocron.Scheduler
	service     *forecast.Service
	cities      []string
	interval    time.Duration
	callTimeout time.Duration
}

// New creates a Warmer.
func New(cities []string, interval, callTimeout time.Duration, service *forecast.Service) *Warmer {
	s := gocron.NewScheduler(time.UTC)
	return &Warmer{
		scheduler:   s,
		service:     service,
		cities:      cities,
		interval:    interval,
		callTimeout: callTimeout,
	}
}

// Start schedules the periodic warm-up job and starts the underlying
// scheduler.
func (w *Warmer) Start() error {
	if len(w.cities) == 0 {
		log.Println("warmer: no cities configured; nothing to schedule")
		return nil
	}

	minutes := int(w.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := w.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("warmer: running forecast warm-up job")

		for _, city := range w.cities {
			start, end := w.service.DefaultRange(time.Now().UTC())
			req := forecast.Request{City: city, Start: start, End: end}

			ctx, cancel := context.WithTimeout(context.Background(), w.callTimeout)
			res, err := w.service.Forecast(ctx, req)
			cancel()

			switch {
			case err != nil:
				log.Printf("warmer: forecast failed for %s: %v", city, err)
			case res.Warning != "":
				log.Printf("warmer: %s: %s", city, res.Warning)
			}
		}

		log.Println("warmer: completed forecast warm-up job")
	})
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (w *Warmer) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}
