package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/metrics"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// Per-factor caps of the recommendation score
const (
	maxSpecialtyPoints    = 50
	maxSeverityPoints     = 20
	maxRatingPoints       = 25
	maxVerificationPoints = 10
	maxPricePoints        = 10
	maxScore              = 100

	// DefaultRecommendationLimit bounds the ranked list when no limit is given
	DefaultRecommendationLimit = 10

	reasonSeparator = " • "
)

// DoctorCatalog is the read-only doctor catalog
type DoctorCatalog interface {
	ListDoctors(ctx context.Context, q model.DoctorQuery) ([]model.Doctor, error)
}

// MapDiagnosisToSpecialties maps the diagnosis text to specialties in priority order.
// With high severity General Medicine is moved last so specialists are tried first.
func MapDiagnosisToSpecialties(report model.DiagnosticReport) []string {
	diagnosis := strings.ToLower(report.PrimaryDiagnosis)
	severity := report.Severity.Normalize()

	for _, rule := range specialtyRules {
		if !strings.Contains(diagnosis, rule.Keyword) {
			continue
		}
		specialties := append([]string(nil), rule.Specialties...)
		if severity == model.SeverityHigh {
			specialties = moveToEnd(specialties, SpecialtyGeneralMedicine)
		}
		return specialties
	}

	if severity == model.SeverityHigh {
		return []string{SpecialtyGeneralMedicine, SpecialtyEmergency}
	}
	return []string{SpecialtyGeneralMedicine}
}

func moveToEnd(list []string, value string) []string {
	out := make([]string, 0, len(list))
	found := false
	for _, s := range list {
		if s == value {
			found = true
			continue
		}
		out = append(out, s)
	}
	if found {
		out = append(out, value)
	}
	return out
}

// specialtyMatch reports whether any of the doctor's specialties is recommended,
// and whether one of them is the highest-priority recommendation
func specialtyMatch(doctor model.Doctor, recommended []string) (matches, primary bool) {
	own := append([]string{doctor.Specialty}, doctor.SecondarySpecialties...)
	for _, s := range own {
		if s == "" {
			continue
		}
		for i, r := range recommended {
			if strings.EqualFold(s, r) {
				matches = true
				if i == 0 {
					primary = true
				}
			}
		}
	}
	return matches, primary
}

func isGeneralist(doctor model.Doctor) bool {
	return strings.EqualFold(doctor.Specialty, SpecialtyGeneralMedicine)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func specialtyPoints(doctor model.Doctor, recommended []string) float64 {
	matches, primary := specialtyMatch(doctor, recommended)
	points := 0.0
	switch {
	case matches:
		points = 40
		if primary {
			points += 10
		}
	case isGeneralist(doctor):
		points = 30
	}
	return clamp(points, 0, maxSpecialtyPoints)
}

func severityPoints(doctor model.Doctor, severity model.Severity) float64 {
	points := 0.0
	switch severity {
	case model.SeverityHigh:
		if doctor.Verified {
			points += 15
		}
		if doctor.Teleconsultation {
			points += 5
		}
	case model.SeverityMedium:
		if doctor.Verified {
			points += 10
		}
		if doctor.Teleconsultation {
			points += 10
		}
	case model.SeverityLow:
		if doctor.Teleconsultation {
			points += 15
		}
	}
	return clamp(points, 0, maxSeverityPoints)
}

func ratingPoints(doctor model.Doctor) float64 {
	points := 0.0
	if doctor.Rating != nil {
		points = (*doctor.Rating / 5) * 20
	}
	if doctor.ReviewCount > 50 {
		points += 5
	}
	return clamp(points, 0, maxRatingPoints)
}

func verificationPoints(doctor model.Doctor) float64 {
	points := 0.0
	if doctor.Teleconsultation {
		points += 5
	}
	if doctor.Verified {
		points += 5
	}
	return clamp(points, 0, maxVerificationPoints)
}

func pricePoints(doctor model.Doctor) float64 {
	if doctor.ConsultationPrice == nil {
		return 0
	}
	price := *doctor.ConsultationPrice
	switch {
	case price < 30:
		return 5
	case price <= 80:
		return 10
	default:
		return 2
	}
}

// Score rates how well a doctor fits the report, from 0 to 100.
// Each factor is capped on its own; the rounded total is clamped to [0,100].
func Score(doctor model.Doctor, report model.DiagnosticReport, recommended []string) int {
	severity := report.Severity.Normalize()

	total := specialtyPoints(doctor, recommended) +
		severityPoints(doctor, severity) +
		ratingPoints(doctor) +
		verificationPoints(doctor) +
		pricePoints(doctor)

	if math.IsNaN(total) {
		return 0
	}
	return int(clamp(math.Round(total), 0, maxScore))
}

// Explain builds the human-readable reason shown next to a recommendation
func Explain(doctor model.Doctor, report model.DiagnosticReport, recommended []string, score int) string {
	var parts []string
	severity := report.Severity.Normalize()

	if matches, primary := specialtyMatch(doctor, recommended); matches {
		if primary {
			parts = append(parts, fmt.Sprintf("Specialist in %s, the best fit for your symptoms", recommended[0]))
		} else {
			parts = append(parts, "Specialty relevant to your symptoms")
		}
	} else if isGeneralist(doctor) {
		parts = append(parts, "General practitioner able to assess your case")
	}

	switch {
	case severity == model.SeverityHigh && doctor.Verified:
		parts = append(parts, "Suited to urgent cases")
	case severity == model.SeverityLow && doctor.Teleconsultation:
		parts = append(parts, "Teleconsultation available for follow-up")
	}

	if doctor.Rating != nil && *doctor.Rating >= 4.5 {
		parts = append(parts, fmt.Sprintf("Highly rated (%.1f/5)", *doctor.Rating))
	}

	if doctor.Verified {
		parts = append(parts, "Verified profile")
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Available for consultation (match %d/100)", score)
	}
	return strings.Join(parts, reasonSeparator)
}

// MatchCriteria evaluates the four match flags for a doctor.
//
// AvailabilityMatch is always true: availability is computed per slot at booking
// time, not as a recommendation filter. SeverityMatch is trivially true for medium severity.
func MatchCriteria(doctor model.Doctor, report model.DiagnosticReport, recommended []string) model.MatchCriteria {
	matches, _ := specialtyMatch(doctor, recommended)

	var severityMatch bool
	switch report.Severity.Normalize() {
	case model.SeverityHigh:
		severityMatch = doctor.Verified
	case model.SeverityLow:
		severityMatch = doctor.Teleconsultation
	default:
		severityMatch = true
	}

	return model.MatchCriteria{
		SpecialtyMatch:    matches,
		SeverityMatch:     severityMatch,
		AvailabilityMatch: true,
		RatingMatch:       doctor.Rating != nil && *doctor.Rating >= 4.0,
	}
}

// RankDoctors scores every candidate, drops non-positive scores, sorts by score
// descending (stable, so ties keep input order) and truncates to limit.
func RankDoctors(candidates []model.Doctor, report model.DiagnosticReport, limit int) []model.RecommendationResult {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	recommended := MapDiagnosisToSpecialties(report)

	results := make([]model.RecommendationResult, 0, len(candidates))
	for _, doctor := range candidates {
		score := Score(doctor, report, recommended)
		if score <= 0 {
			continue
		}
		results = append(results, model.RecommendationResult{
			Doctor:        doctor,
			Score:         score,
			Reason:        Explain(doctor, report, recommended, score),
			MatchCriteria: MatchCriteria(doctor, report, recommended),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// SortRecommendations returns a re-sorted copy of list.
// Price sorts ascending with a missing price last; rating sorts descending with a
// missing rating counted as 0. Unknown keys sort by score.
func SortRecommendations(list []model.RecommendationResult, key model.SortKey) []model.RecommendationResult {
	out := append([]model.RecommendationResult(nil), list...)

	var less func(a, b model.RecommendationResult) bool
	switch key {
	case model.SortByRating:
		less = func(a, b model.RecommendationResult) bool {
			return ratingOrZero(a.Doctor) > ratingOrZero(b.Doctor)
		}
	case model.SortByPrice:
		less = func(a, b model.RecommendationResult) bool {
			return priceOrInf(a.Doctor) < priceOrInf(b.Doctor)
		}
	default:
		less = func(a, b model.RecommendationResult) bool {
			return a.Score > b.Score
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func ratingOrZero(d model.Doctor) float64 {
	if d.Rating == nil {
		return 0
	}
	return *d.Rating
}

func priceOrInf(d model.Doctor) float64 {
	if d.ConsultationPrice == nil {
		return math.Inf(1)
	}
	return *d.ConsultationPrice
}

// RecommendationService ranks catalog doctors against a diagnostic report
type RecommendationService struct {
	catalog      DoctorCatalog
	defaultLimit int
	metrics      *metrics.Collector
	logger       *zap.Logger
}

// NewRecommendationService creates a new RecommendationService
func NewRecommendationService(catalog DoctorCatalog, defaultLimit int, collector *metrics.Collector, logger *zap.Logger) *RecommendationService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultRecommendationLimit
	}
	return &RecommendationService{
		catalog:      catalog,
		defaultLimit: defaultLimit,
		metrics:      collector,
		logger:       logger,
	}
}

// Recommend loads candidates from the catalog and ranks them.
// A catalog failure is logged and yields an empty list, never an error.
func (s *RecommendationService) Recommend(
	ctx context.Context,
	report model.DiagnosticReport,
	patient *model.PatientProfile,
	filters model.RecommendationFilters,
) []model.RecommendationResult {
	query := model.DoctorQuery{
		Specialty:            filters.Specialty,
		City:                 filters.City,
		MinRating:            filters.MinRating,
		MaxPrice:             filters.MaxPrice,
		TeleconsultationOnly: filters.TeleconsultationOnly,
		ActiveOnly:           true,
	}
	if query.City == "" && patient != nil {
		query.City = patient.City
	}

	candidates, err := s.catalog.ListDoctors(ctx, query)
	if err != nil {
		s.logger.Warn("catalog unavailable, returning no recommendations",
			zap.Error(err),
			zap.String("specialty", query.Specialty),
			zap.String("city", query.City),
		)
		s.metrics.ObserveRecommendation(0, true)
		return []model.RecommendationResult{}
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	results := RankDoctors(candidates, report, limit)
	if filters.SortBy != "" && filters.SortBy != model.SortByScore {
		results = SortRecommendations(results, filters.SortBy)
	}

	s.logger.Info("recommendations computed",
		zap.String("severity", string(report.Severity.Normalize())),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)
	s.metrics.ObserveRecommendation(len(results), false)

	return results
}
