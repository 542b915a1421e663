// Package health tracks dependency liveness for the /health endpoint and the
// startup gate.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Pinger is implemented by dependencies that can answer a cheap liveness query.
type Pinger interface {
	HealthPing(ctx context.Context) error
}

// Checker is one named dependency whose state is refreshed in the background.
type Checker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// Probe is a Checker driven by a check function. It reports unhealthy until
// the first check passes.
type Probe struct {
	name    string
	check   func(ctx context.Context) error
	timeout time.Duration
	log     zerolog.Logger
	healthy atomic.Bool
}

func NewProbe(name string, check func(ctx context.Context) error, timeout time.Duration, log zerolog.Logger) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Probe{name: name, check: check, timeout: timeout, log: log}
}

func (p *Probe) Name() string { return p.name }

func (p *Probe) IsHealthy() bool { return p.healthy.Load() }

// Start runs the check now and then every interval until ctx is done.
func (p *Probe) Start(ctx context.Context, interval time.Duration) {
	every(ctx, interval, func() {
		checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		err := p.check(checkCtx)
		if err != nil {
			p.log.Error().Stack().Str("checker", p.name).Err(err).Msg("health check failed")
		}
		p.healthy.Store(err == nil)
	})
}

// Service aggregates checkers: healthy only while every checker is.
type Service struct {
	checkers []Checker
	healthy  atomic.Bool
	log      zerolog.Logger
}

func NewService(log zerolog.Logger, checkers ...Checker) *Service {
	return &Service{checkers: checkers, log: log}
}

func (s *Service) IsHealthy() bool { return s.healthy.Load() }

// Components reports the cached state of every checker by name.
func (s *Service) Components() map[string]bool {
	out := make(map[string]bool, len(s.checkers))
	for _, c := range s.checkers {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

// Run starts every checker and re-evaluates the aggregate each interval. It
// blocks until ctx is done and logs UP/DOWN transitions only.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	for _, c := range s.checkers {
		go c.Start(ctx, interval)
	}
	every(ctx, interval, func() {
		up := true
		for _, c := range s.checkers {
			up = up && c.IsHealthy()
		}
		if prev := s.healthy.Swap(up); prev == up {
			return
		}
		if up {
			s.log.Info().Msg("service health: UP")
		} else {
			s.log.Error().Interface("components", s.Components()).Msg("service health: DOWN")
		}
	})
}

// WaitHealthy polls until the aggregate is healthy, timeout elapses, or ctx ends.
func (s *Service) WaitHealthy(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for !s.IsHealthy() {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	return true
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	fn()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
