package source

import (
	"github.com/gyeh/refload/internal/classify"
	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/normalize"
)

// RecordFrom builds the canonical record of entity from one raw source
// object, filling attributes the source omits with the classify
// heuristics. The returned record may have an empty natural key; callers
// decide whether that is a rejection or an error.
func RecordFrom(entity model.EntityType, raw map[string]any) model.Record {
	f := normalize.NewFields(raw)
	switch entity.Name {
	case model.Procedures.Name:
		return procedureFrom(f)
	case model.Diagnoses.Name:
		return diagnosisFrom(f)
	case model.Drugs.Name:
		return drugFrom(f)
	case model.Supplies.Name:
		return supplyFrom(f)
	}
	return nil
}

func procedureFrom(f normalize.Fields) *model.ProcedureRecord {
	s := normalize.ProcedureSchema
	r := &model.ProcedureRecord{
		Code:              normalize.Code(f.Str(s, "code")),
		Description:       f.Str(s, "description"),
		Specialty:         f.OptStr(s, "specialty"),
		TariffSchema2001:  f.Num(s, "tariffSchema2001"),
		TariffSchema2004:  f.Num(s, "tariffSchema2004"),
		TariffCurrent:     f.Num(s, "tariffCurrent"),
		RelativeValueUnit: f.Num(s, "relativeValueUnit"),
		Active:            f.Flag(s, "active", true),
	}
	r.Category = knownProcedureCategory(f.Str(s, "category"))
	if r.Category == "" {
		r.Category = classify.ProcedureCategory(r.Code)
	}

	tariff := r.TariffCurrent
	if tariff == nil {
		tariff = r.TariffSchema2004
	}
	m := classify.ProcedureMetadata(r.Category, tariff)
	m.RequiresAuthorization = f.Flag(s, "requiresAuthorization", m.RequiresAuthorization)
	m.RequiresOperatingRoom = f.Flag(s, "requiresOperatingRoom", m.RequiresOperatingRoom)
	if mins := normalize.RoundMinutes(f.Num(s, "averageDurationMinutes")); mins != nil {
		m.AverageDurationMinutes = *mins
	}
	if lvl := knownComplexity(f.Str(s, "complexityLevel")); lvl != "" {
		m.ComplexityLevel = lvl
	}
	r.Metadata = &m
	return r
}

func diagnosisFrom(f normalize.Fields) *model.DiagnosisRecord {
	s := normalize.DiagnosisSchema
	code := normalize.DiagnosisCode(f.Str(s, "code"))
	desc := f.Str(s, "description")
	r := &model.DiagnosisRecord{
		Code:                    code,
		Description:             desc,
		Category:                classify.DiagnosisChapter(f.Str(s, "category")),
		Subcategory:             f.OptStr(s, "subcategory"),
		InjuryType:              f.OptStr(s, "injuryType"),
		Severity:                knownSeverity(f.Str(s, "severity")),
		IsChronic:               f.Flag(s, "isChronic", classify.IsChronic(desc)),
		RequiresHospitalization: f.Flag(s, "requiresHospitalization", classify.RequiresHospitalization(desc, code)),
		Active:                  f.Flag(s, "active", true),
	}
	if r.Category == "" {
		r.Category = classify.DiagnosisCategory(code)
	}
	if r.Severity == "" {
		r.Severity = classify.Severity(desc)
	}
	if r.InjuryType == nil {
		r.InjuryType = normalize.OptStr(classify.InjuryType(desc, code))
	}
	return r
}

func drugFrom(f normalize.Fields) *model.DrugRecord {
	s := normalize.DrugSchema
	ingredient := f.Str(s, "activeIngredient")
	cum := f.Str(s, "cumCode")
	// Socrata CUM rows split the key into expediente and consecutivo.
	if consecutive := f.Str(s, "consecutive"); cum != "" && consecutive != "" {
		cum = cum + "-" + consecutive
	}
	r := &model.DrugRecord{
		CumCode:                cum,
		AtcCode:                f.OptStr(s, "atcCode"),
		ActiveIngredient:       ingredient,
		BrandName:              f.OptStr(s, "brandName"),
		Concentration:          concentration(f),
		PharmaceuticalForm:     classify.PharmaceuticalForm(f.Str(s, "pharmaceuticalForm")),
		RoutesOfAdministration: classify.Routes(f.Str(s, "routes")),
		Presentation:           f.Str(s, "presentation"),
		UnitPrice:              f.Num(s, "unitPrice"),
		SalePrice:              f.Num(s, "salePrice"),
		Manufacturer:           f.OptStr(s, "manufacturer"),
		SanitaryRegistration:   f.OptStr(s, "sanitaryRegistration"),
		RegistrationExpiresOn:  f.Date(s, "registrationExpiresOn"),
		IsInNationalFormulary:  f.Flag(s, "isInNationalFormulary", false),
		RequiresPrescription:   f.Flag(s, "requiresPrescription", true),
		IsControlledSubstance:  f.Flag(s, "isControlledSubstance", classify.IsControlledSubstance(ingredient)),
		Active:                 f.Flag(s, "active", true),
	}
	if status := f.Str(s, "registrationStatus"); status != "" {
		r.Active = normalize.ParseBool(status, r.Active)
	}
	if status := f.Str(s, "cumStatus"); status != "" {
		r.Active = r.Active && normalize.ParseBool(status, true)
	}
	return r
}

// concentration joins the amount and unit columns published separately by
// the CUM dataset ("500" + "mg").
func concentration(f normalize.Fields) string {
	s := normalize.DrugSchema
	c := f.Str(s, "concentration")
	unit := f.Str(s, "unitOfMeasure")
	if c == "" || unit == "" || normalize.ParseAmount(c) == nil {
		return c
	}
	return c + " " + unit
}

func supplyFrom(f normalize.Fields) *model.SupplyRecord {
	s := normalize.SupplySchema
	r := &model.SupplyRecord{
		Code:                  normalize.Code(f.Str(s, "code")),
		Description:           f.Str(s, "description"),
		Category:              f.Str(s, "category"),
		Unit:                  f.OptStr(s, "unit"),
		UnitPrice:             f.Num(s, "unitPrice"),
		Manufacturer:          f.OptStr(s, "manufacturer"),
		RequiresSterilization: f.Flag(s, "requiresSterilization", false),
		Active:                f.Flag(s, "active", true),
	}
	if r.Category == "" {
		r.Category = "General"
	}
	return r
}

var procedureCategories = []string{
	classify.CategorySurgical,
	classify.CategoryImaging,
	classify.CategoryConsultation,
	classify.CategoryLaboratory,
	classify.CategoryTherapy,
	classify.CategoryDiagnostic,
	classify.CategoryProcedure,
}

// knownProcedureCategory accepts a source-supplied category only when it
// names a member of the enum.
func knownProcedureCategory(v string) string {
	return oneOf(v, procedureCategories)
}

func knownSeverity(v string) string {
	return oneOf(v, []string{model.SeverityMild, model.SeverityModerate, model.SeveritySevere, model.SeverityCritical})
}

func knownComplexity(v string) string {
	return oneOf(v, []string{model.ComplexityLow, model.ComplexityMedium, model.ComplexityHigh, model.ComplexityVeryHigh})
}

func oneOf(v string, allowed []string) string {
	k := normalize.Fold(v)
	for _, a := range allowed {
		if normalize.Fold(a) == k {
			return a
		}
	}
	return ""
}

// Schema returns the candidate-key table of entity and the canonical name
// of its natural-key field.
func Schema(entity model.EntityType) (normalize.Schema, string) {
	switch entity.Name {
	case model.Procedures.Name:
		return normalize.ProcedureSchema, "code"
	case model.Diagnoses.Name:
		return normalize.DiagnosisSchema, "code"
	case model.Drugs.Name:
		return normalize.DrugSchema, "cumCode"
	case model.Supplies.Name:
		return normalize.SupplySchema, "code"
	}
	return nil, ""
}
