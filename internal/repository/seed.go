package repository

import (
	"context"
	"fmt"

	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// DoctorWriter is implemented by both doctor stores
type DoctorWriter interface {
	UpsertDoctor(ctx context.Context, d *model.Doctor) error
}

func ptr(f float64) *float64 {
	return &f
}

// DemoDoctors is a small catalog covering the specialties the recommendation table routes to
func DemoDoctors() []model.Doctor {
	return []model.Doctor{
		{ID: "6f1c2d1e-0001-4a51-9d1a-000000000001", FullName: "Dr. Claire Martin", Specialty: "Pneumology", SecondarySpecialties: []string{"Allergology"}, Rating: ptr(4.8), ReviewCount: 132, ConsultationPrice: ptr(60), Teleconsultation: true, Verified: true, Active: true, City: "Lyon"},
		{ID: "6f1c2d1e-0001-4a51-9d1a-000000000002", FullName: "Dr. Paul Durand", Specialty: "General Medicine", Rating: ptr(4.5), ReviewCount: 310, ConsultationPrice: ptr(25), Teleconsultation: true, Verified: true, Active: true, City: "Lyon"},
		{ID: "6f1c2d1e-0001-4a51-9d1a-000000000003", FullName: "Dr. Amina Benali", Specialty: "Cardiology", Rating: ptr(4.9), ReviewCount: 88, ConsultationPrice: ptr(80), Teleconsultation: false, Verified: true, Active: true, City: "Paris"},
		{ID: "6f1c2d1e-0001-4a51-9d1a-000000000004", FullName: "Dr. Lucas Petit", Specialty: "Dermatology", Rating: ptr(4.2), ReviewCount: 54, ConsultationPrice: ptr(50), Teleconsultation: true, Verified: false, Active: true, City: "Paris"},
		{ID: "6f1c2d1e-0001-4a51-9d1a-000000000005", FullName: "Dr. Sofia Rossi", Specialty: "Neurology", Rating: ptr(4.6), ReviewCount: 41, ConsultationPrice: ptr(70), Teleconsultation: true, Verified: true, Active: true, City: "Marseille"},
		{ID: "6f1c2d1e-0001-4a51-9d1a-000000000006", FullName: "Dr. Hugo Laurent", Specialty: "Emergency", SecondarySpecialties: []string{"General Medicine"}, Rating: ptr(4.4), ReviewCount: 19, Teleconsultation: false, Verified: true, Active: true, City: "Lyon"},
		{ID: "6f1c2d1e-0001-4a51-9d1a-000000000007", FullName: "Dr. Nadia Haddad", Specialty: "Psychiatry", Rating: ptr(4.7), ReviewCount: 73, ConsultationPrice: ptr(65), Teleconsultation: true, Verified: true, Active: true, City: "Paris"},
		{ID: "6f1c2d1e-0001-4a51-9d1a-000000000008", FullName: "Dr. Marc Lefebvre", Specialty: "Gastroenterology", ReviewCount: 0, ConsultationPrice: ptr(55), Teleconsultation: false, Verified: false, Active: false, City: "Lille"},
	}
}

// SeedDoctors upserts the demo catalog
func SeedDoctors(ctx context.Context, w DoctorWriter, logger *zap.Logger) (int, error) {
	doctors := DemoDoctors()
	for i := range doctors {
		if err := w.UpsertDoctor(ctx, &doctors[i]); err != nil {
			return i, fmt.Errorf("failed to seed doctor %s: %w", doctors[i].ID, err)
		}
	}
	logger.Info("doctor catalog seeded", zap.Int("count", len(doctors)))
	return len(doctors), nil
}
