package service

// Specialty names as stored in the doctor catalog
const (
	SpecialtyGeneralMedicine    = "General Medicine"
	SpecialtyEmergency          = "Emergency"
	SpecialtyPneumology         = "Pneumology"
	SpecialtyCardiology         = "Cardiology"
	SpecialtyDermatology        = "Dermatology"
	SpecialtyNeurology          = "Neurology"
	SpecialtyGastroenterology   = "Gastroenterology"
	SpecialtyOrthopedics        = "Orthopedics"
	SpecialtyRheumatology       = "Rheumatology"
	SpecialtyPsychiatry         = "Psychiatry"
	SpecialtyEndocrinology      = "Endocrinology"
	SpecialtyENT                = "ENT"
	SpecialtyOphthalmology      = "Ophthalmology"
	SpecialtyGynecology         = "Gynecology"
	SpecialtyUrology            = "Urology"
	SpecialtyPediatrics         = "Pediatrics"
	SpecialtyInfectiousDiseases = "Infectious Diseases"
	SpecialtyAllergology        = "Allergology"
)

// specialtyRule maps a lower-case diagnosis keyword to specialties in priority order
type specialtyRule struct {
	Keyword     string
	Specialties []string
}

// specialtyRules is scanned top to bottom and the first keyword found in the
// diagnosis wins, so more specific keywords must precede generic ones.
var specialtyRules = []specialtyRule{
	{Keyword: "pneumonie", Specialties: []string{SpecialtyPneumology, SpecialtyGeneralMedicine}},
	{Keyword: "pneumonia", Specialties: []string{SpecialtyPneumology, SpecialtyGeneralMedicine}},
	{Keyword: "bronchite", Specialties: []string{SpecialtyPneumology, SpecialtyGeneralMedicine}},
	{Keyword: "bronchitis", Specialties: []string{SpecialtyPneumology, SpecialtyGeneralMedicine}},
	{Keyword: "asthme", Specialties: []string{SpecialtyPneumology, SpecialtyAllergology}},
	{Keyword: "asthma", Specialties: []string{SpecialtyPneumology, SpecialtyAllergology}},
	{Keyword: "infarctus", Specialties: []string{SpecialtyCardiology, SpecialtyEmergency}},
	{Keyword: "angine de poitrine", Specialties: []string{SpecialtyCardiology}},
	{Keyword: "arythmie", Specialties: []string{SpecialtyCardiology}},
	{Keyword: "tachycardie", Specialties: []string{SpecialtyCardiology}},
	{Keyword: "hypertension", Specialties: []string{SpecialtyCardiology, SpecialtyGeneralMedicine}},
	{Keyword: "cardiaque", Specialties: []string{SpecialtyCardiology}},
	{Keyword: "avc", Specialties: []string{SpecialtyNeurology, SpecialtyEmergency}},
	{Keyword: "épilepsie", Specialties: []string{SpecialtyNeurology}},
	{Keyword: "migraine", Specialties: []string{SpecialtyNeurology, SpecialtyGeneralMedicine}},
	{Keyword: "eczéma", Specialties: []string{SpecialtyDermatology, SpecialtyAllergology}},
	{Keyword: "psoriasis", Specialties: []string{SpecialtyDermatology}},
	{Keyword: "acné", Specialties: []string{SpecialtyDermatology}},
	{Keyword: "urticaire", Specialties: []string{SpecialtyDermatology, SpecialtyAllergology}},
	{Keyword: "allergie", Specialties: []string{SpecialtyAllergology, SpecialtyGeneralMedicine}},
	{Keyword: "ulcère", Specialties: []string{SpecialtyGastroenterology}},
	{Keyword: "reflux", Specialties: []string{SpecialtyGastroenterology, SpecialtyGeneralMedicine}},
	{Keyword: "gastro", Specialties: []string{SpecialtyGastroenterology, SpecialtyGeneralMedicine}},
	{Keyword: "fracture", Specialties: []string{SpecialtyOrthopedics, SpecialtyEmergency}},
	{Keyword: "entorse", Specialties: []string{SpecialtyOrthopedics, SpecialtyGeneralMedicine}},
	{Keyword: "arthrose", Specialties: []string{SpecialtyRheumatology, SpecialtyOrthopedics}},
	{Keyword: "arthrite", Specialties: []string{SpecialtyRheumatology}},
	{Keyword: "lombalgie", Specialties: []string{SpecialtyRheumatology, SpecialtyGeneralMedicine}},
	{Keyword: "dépression", Specialties: []string{SpecialtyPsychiatry, SpecialtyGeneralMedicine}},
	{Keyword: "anxiété", Specialties: []string{SpecialtyPsychiatry, SpecialtyGeneralMedicine}},
	{Keyword: "insomnie", Specialties: []string{SpecialtyPsychiatry, SpecialtyGeneralMedicine}},
	{Keyword: "diabète", Specialties: []string{SpecialtyEndocrinology, SpecialtyGeneralMedicine}},
	{Keyword: "thyroïde", Specialties: []string{SpecialtyEndocrinology}},
	{Keyword: "otite", Specialties: []string{SpecialtyENT, SpecialtyGeneralMedicine}},
	{Keyword: "sinusite", Specialties: []string{SpecialtyENT, SpecialtyGeneralMedicine}},
	{Keyword: "angine", Specialties: []string{SpecialtyENT, SpecialtyGeneralMedicine}},
	{Keyword: "conjonctivite", Specialties: []string{SpecialtyOphthalmology, SpecialtyGeneralMedicine}},
	{Keyword: "grossesse", Specialties: []string{SpecialtyGynecology}},
	{Keyword: "infection urinaire", Specialties: []string{SpecialtyUrology, SpecialtyGeneralMedicine}},
	{Keyword: "covid", Specialties: []string{SpecialtyInfectiousDiseases, SpecialtyGeneralMedicine}},
	{Keyword: "grippe", Specialties: []string{SpecialtyGeneralMedicine, SpecialtyInfectiousDiseases}},
	{Keyword: "rhume", Specialties: []string{SpecialtyGeneralMedicine}},
	{Keyword: "fièvre", Specialties: []string{SpecialtyGeneralMedicine, SpecialtyPediatrics}},
}
