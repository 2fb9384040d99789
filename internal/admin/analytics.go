package admin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

const (
	analyticsDays = 7
	dayLayout     = "2006-01-02"
)

// Analytics summarizes revenue and order volume. The daily breakdown covers
// the seven UTC days ending on now, oldest first.
func (s *service) Analytics(ctx context.Context, now time.Time) (*Analytics, error) {
	totals, err := s.orderStats.Totals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order totals")
	}
	byStatus, err := s.orderStats.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders by status")
	}

	today := now.UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(analyticsDays - 1))
	recent, err := s.orderStats.ListSince(ctx, start)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recent orders")
	}

	days := make([]DailySales, analyticsDays)
	index := make(map[string]int, analyticsDays)
	for i := range days {
		key := start.AddDate(0, 0, i).Format(dayLayout)
		days[i] = DailySales{Date: key, Revenue: decimal.Zero}
		index[key] = i
	}
	for _, row := range recent {
		i, ok := index[row.OrderDate.UTC().Format(dayLayout)]
		if !ok {
			continue
		}
		days[i].Orders++
		days[i].Revenue = days[i].Revenue.Add(row.TotalAmount)
	}

	counts := make(map[enums.OrderStatus]int64, len(enums.OrderStatuses()))
	for _, status := range enums.OrderStatuses() {
		counts[status] = byStatus[status]
	}

	return &Analytics{
		TotalRevenue: totals.Revenue,
		TotalOrders:  totals.Orders,
		StatusCounts: counts,
		Last7Days:    days,
	}, nil
}
