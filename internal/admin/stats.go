package admin

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

// Stats counts orders, pending orders and users concurrently. A failed
// attempt is retried once after the configured delay.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.countAll(ctx)
	if err == nil {
		return stats, nil
	}
	if s.logger != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "admin.stats_retry")
	}

	timer := time.NewTimer(s.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "load stats")
	case <-timer.C:
	}

	stats, err = s.countAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stats")
	}
	return stats, nil
}

func (s *service) countAll(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.orderStats.Count(gctx, nil)
		stats.TotalOrders = n
		return err
	})
	g.Go(func() error {
		pending := enums.OrderStatusPending
		n, err := s.orderStats.Count(gctx, &pending)
		stats.PendingOrders = n
		return err
	})
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		stats.TotalUsers = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
