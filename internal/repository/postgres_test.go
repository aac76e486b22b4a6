package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/service"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/timeline"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// startPostgres creates a PostgreSQL testcontainer, applies the schema and returns the pool
func startPostgres(t *testing.T) *pgxpool.Pool {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("booking_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool, zap.NewNop()))

	t.Cleanup(func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return pool
}

func TestPostgres_AppointmentRepository(t *testing.T) {
	pool := startPostgres(t)
	repo := NewAppointmentRepository(pool, zap.NewNop())
	ctx := context.Background()

	first := newAppointment("doc-1", model.ClockAt(10, 0), 60)
	report := "report-1"
	first.DiagnosticReportID = &report
	first.ReportShared = true
	require.NoError(t, repo.CreateIfSlotFree(ctx, first))

	assert.ErrorIs(t, repo.CreateIfSlotFree(ctx, newAppointment("doc-1", model.ClockAt(10, 30), 30)), model.ErrSlotConflict)
	assert.ErrorIs(t, repo.CreateIfSlotFree(ctx, newAppointment("doc-1", model.ClockAt(10, 0), 30)), model.ErrSlotConflict)
	require.NoError(t, repo.CreateIfSlotFree(ctx, newAppointment("doc-1", model.ClockAt(11, 0), 30)))

	active, err := repo.FindActiveByDoctorAndDate(ctx, "doc-1", bookingDate)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, model.ClockAt(10, 0), active[0].StartTime)

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-11-02", got.Date.Format(model.DateLayout))
	assert.Equal(t, "report-1", *got.DiagnosticReportID)
	assert.True(t, got.ReportShared)
	assert.Equal(t, model.StatusScheduled, got.Status)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPostgres_ConcurrentBookingsAcrossInstances(t *testing.T) {
	pool := startPostgres(t)
	logger := zap.NewNop()

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		// one repository and service per goroutine, as if each were its own process
		repo := NewAppointmentRepository(pool, logger)
		svc := service.NewBookingService(service.BookingDeps{
			Appointments: repo,
			Availability: service.NewAvailabilityService(repo, service.DefaultWorkingHours, logger),
			Links:        NewLinkRepository(pool, logger),
			Timeline:     timeline.NewRecorder(NewTimelineRepository(pool, logger), logger),
		}, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.BookAppointment(context.Background(), model.BookingRequest{
				PatientID: uuid.NewString(),
				DoctorID:  "doc-race",
				Date:      "2026-11-02",
				Time:      "15:30",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, model.ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)
}

func TestPostgres_DoctorRepository(t *testing.T) {
	pool := startPostgres(t)
	repo := NewDoctorRepository(pool, zap.NewNop())
	ctx := context.Background()

	rating := 4.6
	price := 45.0
	require.NoError(t, repo.UpsertDoctor(ctx, &model.Doctor{
		ID: "doc-1", FullName: "Dr. Claire Martin", Specialty: "Cardiology",
		Rating: &rating, ConsultationPrice: &price, Teleconsultation: true, Verified: true, Active: true, City: "Lyon",
	}))
	require.NoError(t, repo.UpsertDoctor(ctx, &model.Doctor{
		ID: "doc-2", FullName: "Dr. Paul Durand", Specialty: "General Medicine",
		SecondarySpecialties: []string{"Cardiology"}, Active: true, City: "Lyon",
	}))

	cardio, err := repo.ListDoctors(ctx, model.DoctorQuery{Specialty: "cardiology", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, cardio, 2)
	assert.Equal(t, "doc-1", cardio[0].ID)
	assert.Equal(t, []string{"Cardiology"}, cardio[1].SecondarySpecialties)

	maxPrice := 40.0
	cheap, err := repo.ListDoctors(ctx, model.DoctorQuery{MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.Empty(t, cheap)

	_, err = repo.FindDoctorByID(ctx, "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPostgres_LinkAndTimeline(t *testing.T) {
	pool := startPostgres(t)
	logger := zap.NewNop()
	links := NewLinkRepository(pool, logger)
	recorder := timeline.NewRecorder(NewTimelineRepository(pool, logger), logger)
	ctx := context.Background()

	link := &model.DoctorPatientLink{ID: uuid.NewString(), DoctorID: "doc-1", PatientID: "pat-1", CreatedAt: time.Now()}
	require.NoError(t, links.Create(ctx, link))
	exists, err := links.Exists(ctx, "doc-1", "pat-1", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	dup := &model.DoctorPatientLink{ID: uuid.NewString(), DoctorID: "doc-1", PatientID: "pat-1", CreatedAt: time.Now()}
	assert.ErrorIs(t, links.Create(ctx, dup), model.ErrDuplicate)

	require.NoError(t, recorder.Record(ctx, &model.TimelineEvent{
		PatientID: "pat-1", EventType: model.TimelineAppointmentBooked,
		Title: "Appointment booked", Description: "Teleconsultation",
		Metadata: map[string]interface{}{"duration_minutes": 30},
	}))
	events, err := recorder.History(ctx, "pat-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, float64(30), events[0].Metadata["duration_minutes"])
}

// Property: an interval is admitted only if no stored active interval of the same doctor and date overlaps it
func TestProperty_PostgresAdmitsOnlyNonOverlapping(t *testing.T) {
	pool := startPostgres(t)
	repo := NewAppointmentRepository(pool, zap.NewNop())

	properties := gopter.NewProperties(nil)

	properties.Property("stored intervals never overlap", prop.ForAll(
		func(starts []int) bool {
			ctx := context.Background()
			doctorID := "doc-" + uuid.NewString()

			for _, s := range starts {
				appt := newAppointment(doctorID, model.Clock(s*15), 30)
				if err := repo.CreateIfSlotFree(ctx, appt); err != nil && !errors.Is(err, model.ErrSlotConflict) {
					t.Logf("unexpected error: %v", err)
					return false
				}
			}

			stored, err := repo.FindActiveByDoctorAndDate(ctx, doctorID, bookingDate)
			if err != nil {
				return false
			}
			for i := 1; i < len(stored); i++ {
				if stored[i-1].EndTime() > stored[i].StartTime {
					t.Logf("overlap between %s and %s", stored[i-1].StartTime, stored[i].StartTime)
					return false
				}
			}
			return len(starts) == 0 || len(stored) > 0
		},
		gen.SliceOf(gen.IntRange(36, 70)),
	))

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 25
	properties.TestingRun(t, params)
}
