package model

import "time"

// Record is a normalized reference-data entity ready for persistence.
// Fields returns only the columns ingestion owns; stores must never touch
// any other column of an existing row.
type Record interface {
	Entity() EntityType
	NaturalKey() string
	Fields() map[string]any
}

// UpsertResult is the per-record outcome of a batched upsert.
type UpsertResult struct {
	Key      string
	Inserted bool
	Err      error
}

// Complexity levels for procedure metadata.
const (
	ComplexityLow      = "low"
	ComplexityMedium   = "medium"
	ComplexityHigh     = "high"
	ComplexityVeryHigh = "very_high"
)

// ProcedureMetadata holds attributes inferred for a procedure.
type ProcedureMetadata struct {
	RequiresAuthorization  bool
	AverageDurationMinutes int
	ComplexityLevel        string
	RequiresOperatingRoom  bool
}

// ProcedureRecord is a CUPS procedure code.
type ProcedureRecord struct {
	Code              string
	Description       string
	Category          string
	Specialty         *string
	TariffSchema2001  *float64
	TariffSchema2004  *float64
	TariffCurrent     *float64
	RelativeValueUnit *float64
	Active            bool
	Metadata          *ProcedureMetadata
}

func (r *ProcedureRecord) Entity() EntityType { return Procedures }
func (r *ProcedureRecord) NaturalKey() string { return r.Code }

func (r *ProcedureRecord) Fields() map[string]any {
	f := map[string]any{
		"code":                r.Code,
		"description":         r.Description,
		"category":            r.Category,
		"specialty":           r.Specialty,
		"tariff_schema_2001":  r.TariffSchema2001,
		"tariff_schema_2004":  r.TariffSchema2004,
		"tariff_current":      r.TariffCurrent,
		"relative_value_unit": r.RelativeValueUnit,
		"active":              r.Active,
	}
	if m := r.Metadata; m != nil {
		f["requires_authorization"] = m.RequiresAuthorization
		f["average_duration_minutes"] = m.AverageDurationMinutes
		f["complexity_level"] = m.ComplexityLevel
		f["requires_operating_room"] = m.RequiresOperatingRoom
	}
	return f
}

// Diagnosis severities.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityCritical = "critical"
)

// DiagnosisRecord is a CIE-10 diagnosis code.
type DiagnosisRecord struct {
	Code                    string
	Description             string
	Category                string
	Subcategory             *string
	InjuryType              *string
	Severity                string
	IsChronic               bool
	RequiresHospitalization bool
	Active                  bool
}

func (r *DiagnosisRecord) Entity() EntityType { return Diagnoses }
func (r *DiagnosisRecord) NaturalKey() string { return r.Code }

func (r *DiagnosisRecord) Fields() map[string]any {
	return map[string]any{
		"code":                     r.Code,
		"description":              r.Description,
		"category":                 r.Category,
		"subcategory":              r.Subcategory,
		"injury_type":              r.InjuryType,
		"severity":                 r.Severity,
		"is_chronic":               r.IsChronic,
		"requires_hospitalization": r.RequiresHospitalization,
		"active":                   r.Active,
	}
}

// DrugRecord is an INVIMA/CUM drug registration.
type DrugRecord struct {
	CumCode                string
	AtcCode                *string
	ActiveIngredient       string
	BrandName              *string
	Concentration          string
	PharmaceuticalForm     string
	RoutesOfAdministration []string
	Presentation           string
	UnitPrice              *float64
	SalePrice              *float64
	Manufacturer           *string
	SanitaryRegistration   *string
	RegistrationExpiresOn  *time.Time
	IsInNationalFormulary  bool
	RequiresPrescription   bool
	IsControlledSubstance  bool
	Active                 bool
}

func (r *DrugRecord) Entity() EntityType { return Drugs }
func (r *DrugRecord) NaturalKey() string { return r.CumCode }

func (r *DrugRecord) Fields() map[string]any {
	return map[string]any{
		"cum_code":                 r.CumCode,
		"atc_code":                 r.AtcCode,
		"active_ingredient":        r.ActiveIngredient,
		"brand_name":               r.BrandName,
		"concentration":            r.Concentration,
		"pharmaceutical_form":      r.PharmaceuticalForm,
		"routes_of_administration": r.RoutesOfAdministration,
		"presentation":             r.Presentation,
		"unit_price":               r.UnitPrice,
		"sale_price":               r.SalePrice,
		"manufacturer":             r.Manufacturer,
		"sanitary_registration":    r.SanitaryRegistration,
		"registration_expires_on":  r.RegistrationExpiresOn,
		"is_in_national_formulary": r.IsInNationalFormulary,
		"requires_prescription":    r.RequiresPrescription,
		"is_controlled_substance":  r.IsControlledSubstance,
		"active":                   r.Active,
	}
}

// SupplyRecord is a medical supply (material) line.
type SupplyRecord struct {
	Code                  string
	Description           string
	Category              string
	Unit                  *string
	UnitPrice             *float64
	Manufacturer          *string
	RequiresSterilization bool
	Active                bool
}

func (r *SupplyRecord) Entity() EntityType { return Supplies }
func (r *SupplyRecord) NaturalKey() string { return r.Code }

func (r *SupplyRecord) Fields() map[string]any {
	return map[string]any{
		"code":                   r.Code,
		"description":            r.Description,
		"category":               r.Category,
		"unit":                   r.Unit,
		"unit_price":             r.UnitPrice,
		"manufacturer":           r.Manufacturer,
		"requires_sterilization": r.RequiresSterilization,
		"active":                 r.Active,
	}
}
