package session

import (
	"time"

	"go.uber.org/zap"

	"mapping-editor/internal/logger"
)

// Reaper periodically closes idle sessions.
type Reaper struct {
	manager  *Manager
	interval time.Duration
	maxIdle  time.Duration
	ticker   *time.Ticker
	done     chan struct{}
}

func NewReaper(m *Manager, interval, maxIdle time.Duration) *Reaper {
	return &Reaper{manager: m, interval: interval, maxIdle: maxIdle}
}

// Start begins the background ticker.
func (r *Reaper) Start() {
	r.done = make(chan struct{})
	r.ticker = time.NewTicker(r.interval)
	go r.run()
	logger.Info("session reaper started", zap.Duration("interval", r.interval), zap.Duration("max_idle", r.maxIdle))
}

// Stop halts the ticker.
func (r *Reaper) Stop() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	if r.done != nil {
		close(r.done)
	}
}

func (r *Reaper) run() {
	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C:
			r.manager.CloseIdle(r.maxIdle)
		}
	}
}
