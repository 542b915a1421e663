package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/amelia751/cloudly/internal/health"
)

// NewHealthChecker probes st with HealthPing when available, otherwise with a
// voice lookup that must succeed or report not-found.
func NewHealthChecker(st Store, log zerolog.Logger, probeTimeout time.Duration) *health.Probe {
	return health.NewProbe("store", func(ctx context.Context) error {
		if p, ok := st.(health.Pinger); ok {
			return p.HealthPing(ctx)
		}
		if _, err := st.Voices().GetByUser(ctx, "__health_check__"); err != nil && !isNotFound(err) {
			return err
		}
		return nil
	}, probeTimeout, log)
}
