package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/metrics"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// MockDoctorStore is a mock implementation of DoctorStore
type MockDoctorStore struct {
	mock.Mock
}

func (m *MockDoctorStore) ListDoctors(ctx context.Context, q model.DoctorQuery) ([]model.Doctor, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Doctor), args.Error(1)
}

func (m *MockDoctorStore) FindDoctorByID(ctx context.Context, id string) (*model.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Doctor), args.Error(1)
}

func newTestGateway(t *testing.T, store DoctorStore) (*Gateway, *metrics.Collector) {
	t.Helper()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	g, err := NewGateway(store, Config{
		CacheSize:        8,
		FailureThreshold: 2,
		Timeout:          time.Minute,
	}, collector, zap.NewNop())
	require.NoError(t, err)
	return g, collector
}

func TestGateway_ListDoctorsWarmsCache(t *testing.T) {
	store := new(MockDoctorStore)
	g, collector := newTestGateway(t, store)
	ctx := context.Background()

	doctors := []model.Doctor{
		{ID: "doc-1", FullName: "Dr. Claire Martin", Specialty: "Pneumology"},
		{ID: "doc-2", FullName: "Dr. Paul Durand", Specialty: "General Medicine"},
	}
	store.On("ListDoctors", ctx, model.DoctorQuery{ActiveOnly: true}).Return(doctors, nil)

	got, err := g.ListDoctors(ctx, model.DoctorQuery{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, doctors, got)

	d, err := g.GetDoctor(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Paul Durand", d.FullName)

	store.AssertNotCalled(t, "FindDoctorByID", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CatalogCacheHits))
}

func TestGateway_GetDoctorCachesMiss(t *testing.T) {
	store := new(MockDoctorStore)
	g, collector := newTestGateway(t, store)
	ctx := context.Background()

	store.On("FindDoctorByID", ctx, "doc-3").Return(&model.Doctor{ID: "doc-3", FullName: "Dr. Ana Lopez"}, nil).Once()

	for i := 0; i < 3; i++ {
		d, err := g.GetDoctor(ctx, "doc-3")
		require.NoError(t, err)
		assert.Equal(t, "Dr. Ana Lopez", d.FullName)
	}

	store.AssertNumberOfCalls(t, "FindDoctorByID", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CatalogCacheMisses))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.CatalogCacheHits))

	g.Invalidate("doc-3")
	store.On("FindDoctorByID", ctx, "doc-3").Return(&model.Doctor{ID: "doc-3", FullName: "Dr. Ana Lopez-Garcia"}, nil).Once()
	d, err := g.GetDoctor(ctx, "doc-3")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ana Lopez-Garcia", d.FullName)
}

func TestGateway_NotFoundDoesNotTripBreaker(t *testing.T) {
	store := new(MockDoctorStore)
	g, _ := newTestGateway(t, store)
	ctx := context.Background()

	store.On("FindDoctorByID", ctx, "ghost").Return(nil, model.ErrNotFound)

	for i := 0; i < 5; i++ {
		_, err := g.GetDoctor(ctx, "ghost")
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.NotErrorIs(t, err, model.ErrUpstreamUnavailable)
	}
	assert.Equal(t, gobreaker.StateClosed, g.State())
}

func TestGateway_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	store := new(MockDoctorStore)
	g, collector := newTestGateway(t, store)
	ctx := context.Background()

	store.On("ListDoctors", ctx, mock.Anything).Return(nil, errors.New("connection refused"))

	for i := 0; i < 2; i++ {
		_, err := g.ListDoctors(ctx, model.DoctorQuery{})
		assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CatalogBreakerOpen))

	_, err := g.ListDoctors(ctx, model.DoctorQuery{})
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	store.AssertNumberOfCalls(t, "ListDoctors", 2)
}
