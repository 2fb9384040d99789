package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/internal/orders"
	"github.com/angelmondragon/vapevault-backend/internal/users"
	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/pagination"
)

type stubOrderStats struct {
	mu        sync.Mutex
	failUntil int
	calls     int
	total     int64
	pending   int64
	totals    orders.Totals
	byStatus  map[enums.OrderStatus]int64
	recent    []orders.OrderSummaryRow
	since     time.Time
}

func (s *stubOrderStats) Count(_ context.Context, status *enums.OrderStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failUntil {
		return 0, errors.New("connection reset")
	}
	if status != nil {
		return s.pending, nil
	}
	return s.total, nil
}

func (s *stubOrderStats) Totals(context.Context) (orders.Totals, error) { return s.totals, nil }

func (s *stubOrderStats) CountByStatus(context.Context) (map[enums.OrderStatus]int64, error) {
	return s.byStatus, nil
}

func (s *stubOrderStats) ListSince(_ context.Context, since time.Time) ([]orders.OrderSummaryRow, error) {
	s.since = since
	return s.recent, nil
}

type stubOrders struct {
	applied []uuid.UUID
	fail    map[uuid.UUID]error
}

func (s *stubOrders) ListAll(context.Context, orders.ListParams) (*orders.OrderPage, error) {
	return &orders.OrderPage{}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, id uuid.UUID, raw string) (*orders.OrderDTO, error) {
	if err := s.fail[id]; err != nil {
		return nil, err
	}
	s.applied = append(s.applied, id)
	return &orders.OrderDTO{ID: id, Status: enums.OrderStatus(raw)}, nil
}

type stubUsers struct {
	count   int64
	updates map[uuid.UUID]users.AdminUpdate
	missing map[uuid.UUID]bool
	listErr error
}

func (s *stubUsers) Count(context.Context) (int64, error) { return s.count, nil }

func (s *stubUsers) List(context.Context, pagination.Params) ([]models.User, string, error) {
	if s.listErr != nil {
		return nil, "", s.listErr
	}
	return []models.User{{FullName: "Ada"}}, "next", nil
}

func (s *stubUsers) UpdateAdminFields(_ context.Context, id uuid.UUID, update users.AdminUpdate) (*models.User, error) {
	if s.missing[id] {
		return nil, gorm.ErrRecordNotFound
	}
	if s.updates == nil {
		s.updates = map[uuid.UUID]users.AdminUpdate{}
	}
	s.updates[id] = update
	return &models.User{ID: id}, nil
}

type stubProducts struct {
	created []*models.Product
	updated map[uuid.UUID]map[string]any
	deleted []uuid.UUID
}

func (s *stubProducts) ListAll(context.Context) ([]models.Product, error) { return nil, nil }

func (s *stubProducts) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	p.ID = uuid.New()
	s.created = append(s.created, p)
	return p, nil
}

func (s *stubProducts) Update(_ context.Context, id uuid.UUID, cols map[string]any) (*models.Product, error) {
	if s.updated == nil {
		s.updated = map[uuid.UUID]map[string]any{}
	}
	s.updated[id] = cols
	return &models.Product{ID: id}, nil
}

func (s *stubProducts) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubInvalidator struct{ calls int }

func (s *stubInvalidator) Invalidate(context.Context) error {
	s.calls++
	return nil
}

type trackedRun struct {
	job string
	err error
}

type stubJobs struct{ runs []trackedRun }

func (s *stubJobs) Track(job string, _ time.Time, err error) {
	s.runs = append(s.runs, trackedRun{job: job, err: err})
}

type fixture struct {
	stats    *stubOrderStats
	orders   *stubOrders
	users    *stubUsers
	products *stubProducts
	catalog  *stubInvalidator
	jobs     *stubJobs
	svc      Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		stats:    &stubOrderStats{},
		orders:   &stubOrders{fail: map[uuid.UUID]error{}},
		users:    &stubUsers{missing: map[uuid.UUID]bool{}},
		products: &stubProducts{},
		catalog:  &stubInvalidator{},
		jobs:     &stubJobs{},
	}
	svc, err := NewService(ServiceParams{
		OrderStats:      f.stats,
		Orders:          f.orders,
		Users:           f.users,
		Products:        f.products,
		Catalog:         f.catalog,
		Jobs:            f.jobs,
		StatsRetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestStatsCountsEverything(t *testing.T) {
	f := newFixture(t)
	f.stats.total, f.stats.pending, f.users.count = 12, 4, 30

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalOrders: 12, PendingOrders: 4, TotalUsers: 30}, *stats)
}

func TestStatsRetriesOnce(t *testing.T) {
	f := newFixture(t)
	f.stats.total, f.stats.pending, f.users.count = 2, 1, 3
	f.stats.failUntil = 1

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalOrders)
}

func TestStatsGivesUpAfterRetry(t *testing.T) {
	f := newFixture(t)
	f.stats.failUntil = 100

	_, err := f.svc.Stats(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestAnalyticsBucketsLastSevenDays(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	f.stats.totals = orders.Totals{Orders: 5, Revenue: decimal.RequireFromString("120.00")}
	f.stats.byStatus = map[enums.OrderStatus]int64{enums.OrderStatusPending: 3, enums.OrderStatusDelivered: 2}
	f.stats.recent = []orders.OrderSummaryRow{
		{OrderDate: now.Add(-time.Hour), TotalAmount: decimal.RequireFromString("10.00")},
		{OrderDate: now.Add(-2 * time.Hour), TotalAmount: decimal.RequireFromString("15.50")},
		{OrderDate: time.Date(2025, 6, 4, 1, 0, 0, 0, time.UTC), TotalAmount: decimal.RequireFromString("30.00")},
	}

	out, err := f.svc.Analytics(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), f.stats.since)
	assert.True(t, out.TotalRevenue.Equal(decimal.RequireFromString("120.00")))
	assert.EqualValues(t, 5, out.TotalOrders)
	assert.EqualValues(t, 0, out.StatusCounts[enums.OrderStatusShipped])
	assert.EqualValues(t, 3, out.StatusCounts[enums.OrderStatusPending])

	require.Len(t, out.Last7Days, 7)
	assert.Equal(t, "2025-06-04", out.Last7Days[0].Date)
	assert.Equal(t, 1, out.Last7Days[0].Orders)
	assert.Equal(t, "2025-06-10", out.Last7Days[6].Date)
	assert.Equal(t, 2, out.Last7Days[6].Orders)
	assert.True(t, out.Last7Days[6].Revenue.Equal(decimal.RequireFromString("25.50")))
	assert.Equal(t, 0, out.Last7Days[3].Orders)
}

func TestApplyOrderStatusesStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	f.orders.fail[b] = pkgerrors.New(pkgerrors.CodeValidation, `Invalid status "lost"`)

	_, err := f.svc.ApplyOrderStatuses(context.Background(), []OrderStatusChange{
		{OrderID: a, Status: "shipped"},
		{OrderID: b, Status: "lost"},
		{OrderID: c, Status: "delivered"},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, `Invalid status "lost"`, typed.Message())
	details := typed.Details().(map[string]any)
	assert.Equal(t, 1, details["applied"])
	assert.Equal(t, b, details["failed_id"])
	assert.Equal(t, []uuid.UUID{a}, f.orders.applied)

	require.Len(t, f.jobs.runs, 1)
	assert.Equal(t, JobOrderStatuses, f.jobs.runs[0].job)
	assert.Error(t, f.jobs.runs[0].err)
}

func TestApplyOrderStatusesAllApplied(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.ApplyOrderStatuses(context.Background(), []OrderStatusChange{
		{OrderID: uuid.New(), Status: "shipped"},
		{OrderID: uuid.New(), Status: "cancelled"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.NoError(t, f.jobs.runs[0].err)
}

func TestApplyUserEditsNormalizes(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	name, role := "  Linus  ", " ADMIN "

	res, err := f.svc.ApplyUserEdits(context.Background(), []UserEdit{{UserID: id, FullName: &name, Role: &role}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	update := f.users.updates[id]
	require.NotNil(t, update.FullName)
	assert.Equal(t, "Linus", *update.FullName)
	require.NotNil(t, update.Role)
	assert.Equal(t, enums.UserRoleAdmin, *update.Role)
}

func TestApplyUserEditsRejectsBadRole(t *testing.T) {
	f := newFixture(t)
	first, second := uuid.New(), uuid.New()
	ok, bad := "user", "owner"

	_, err := f.svc.ApplyUserEdits(context.Background(), []UserEdit{
		{UserID: first, Role: &ok},
		{UserID: second, Role: &bad},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, `Invalid role "owner"`, typed.Message())
	assert.Equal(t, second, typed.Details().(map[string]any)["failed_id"])
	assert.Len(t, f.users.updates, 1)
}

func TestApplyUserEditsMissingUser(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.users.missing[id] = true
	name := "Ghost"

	_, err := f.svc.ApplyUserEdits(context.Background(), []UserEdit{{UserID: id, FullName: &name}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestProductMutationsInvalidateCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, ProductInput{Name: " Cola Ice ", Brand: "Elf", Price: decimal.RequireFromString("12.00"), StockQuantity: 4})
	require.NoError(t, err)
	assert.Equal(t, "Cola Ice", created.Name)
	assert.NotNil(t, f.products.created[0].Tags)

	price := decimal.RequireFromString("9.99")
	_, err = f.svc.ApplyProductEdits(ctx, []ProductEdit{{ProductID: created.ID, Price: &price}})
	require.NoError(t, err)
	assert.Equal(t, price, f.products.updated[created.ID]["price"])

	require.NoError(t, f.svc.DeleteProduct(ctx, created.ID))
	assert.Equal(t, 3, f.catalog.calls)
}

func TestProductEditValidation(t *testing.T) {
	f := newFixture(t)
	neg := -1
	_, err := f.svc.ApplyProductEdits(context.Background(), []ProductEdit{{ProductID: uuid.New(), StockQuantity: &neg}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.ApplyProductEdits(context.Background(), []ProductEdit{{ProductID: uuid.New()}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateProduct(context.Background(), ProductInput{Name: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	page, err := f.svc.ListUsers(context.Background(), pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "next", page.NextCursor)
}

func TestListUsersErrorCodes(t *testing.T) {
	f := newFixture(t)
	f.users.listErr = errors.New("sql: database is closed")
	_, err := f.svc.ListUsers(context.Background(), pagination.Params{Limit: 10})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	f.users.listErr = pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	_, err = f.svc.ListUsers(context.Background(), pagination.Params{Limit: 10, Cursor: "bogus"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
