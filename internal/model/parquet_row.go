package model

import (
	"strings"
	"time"
)

// ExportRow is the flat Parquet schema used by `refload export`. It is the
// union of all entity columns; columns that do not apply to a row's entity
// stay null. Column names match the canonical field names so that an
// exported file can be fed back through the file importer unchanged.
type ExportRow struct {
	Entity string `parquet:"entity"`

	Code        *string `parquet:"code,optional"`
	Description *string `parquet:"description,optional"`
	Category    *string `parquet:"category,optional"`
	Active      bool    `parquet:"active"`

	// Procedures
	Specialty              *string  `parquet:"specialty,optional"`
	TariffSchema2001       *float64 `parquet:"tariff_schema_2001,optional"`
	TariffSchema2004       *float64 `parquet:"tariff_schema_2004,optional"`
	TariffCurrent          *float64 `parquet:"tariff_current,optional"`
	RelativeValueUnit      *float64 `parquet:"relative_value_unit,optional"`
	RequiresAuthorization  *bool    `parquet:"requires_authorization,optional"`
	AverageDurationMinutes *int64   `parquet:"average_duration_minutes,optional"`
	ComplexityLevel        *string  `parquet:"complexity_level,optional"`
	RequiresOperatingRoom  *bool    `parquet:"requires_operating_room,optional"`

	// Diagnoses
	Subcategory             *string `parquet:"subcategory,optional"`
	InjuryType              *string `parquet:"injury_type,optional"`
	Severity                *string `parquet:"severity,optional"`
	IsChronic               *bool   `parquet:"is_chronic,optional"`
	RequiresHospitalization *bool   `parquet:"requires_hospitalization,optional"`

	// Drugs
	CumCode                *string  `parquet:"cum_code,optional"`
	AtcCode                *string  `parquet:"atc_code,optional"`
	ActiveIngredient       *string  `parquet:"active_ingredient,optional"`
	BrandName              *string  `parquet:"brand_name,optional"`
	Concentration          *string  `parquet:"concentration,optional"`
	PharmaceuticalForm     *string  `parquet:"pharmaceutical_form,optional"`
	RoutesOfAdministration *string  `parquet:"routes_of_administration,optional"`
	Presentation           *string  `parquet:"presentation,optional"`
	SalePrice              *float64 `parquet:"sale_price,optional"`
	SanitaryRegistration   *string  `parquet:"sanitary_registration,optional"`
	RegistrationExpiresOn  *string  `parquet:"registration_expires_on,optional"`
	IsInNationalFormulary  *bool    `parquet:"is_in_national_formulary,optional"`
	RequiresPrescription   *bool    `parquet:"requires_prescription,optional"`
	IsControlledSubstance  *bool    `parquet:"is_controlled_substance,optional"`

	// Drugs and supplies
	UnitPrice    *float64 `parquet:"unit_price,optional"`
	Manufacturer *string  `parquet:"manufacturer,optional"`

	// Supplies
	Unit                  *string `parquet:"unit,optional"`
	RequiresSterilization *bool   `parquet:"requires_sterilization,optional"`
}

// ToExportRow flattens a record into the export schema.
func ToExportRow(rec Record) ExportRow {
	row := ExportRow{Entity: rec.Entity().Name}
	switch r := rec.(type) {
	case *ProcedureRecord:
		row.Code = optStr(r.Code)
		row.Description = optStr(r.Description)
		row.Category = optStr(r.Category)
		row.Active = r.Active
		row.Specialty = r.Specialty
		row.TariffSchema2001 = r.TariffSchema2001
		row.TariffSchema2004 = r.TariffSchema2004
		row.TariffCurrent = r.TariffCurrent
		row.RelativeValueUnit = r.RelativeValueUnit
		if m := r.Metadata; m != nil {
			mins := int64(m.AverageDurationMinutes)
			row.RequiresAuthorization = &m.RequiresAuthorization
			row.AverageDurationMinutes = &mins
			row.ComplexityLevel = optStr(m.ComplexityLevel)
			row.RequiresOperatingRoom = &m.RequiresOperatingRoom
		}
	case *DiagnosisRecord:
		row.Code = optStr(r.Code)
		row.Description = optStr(r.Description)
		row.Category = optStr(r.Category)
		row.Active = r.Active
		row.Subcategory = r.Subcategory
		row.InjuryType = r.InjuryType
		row.Severity = optStr(r.Severity)
		row.IsChronic = &r.IsChronic
		row.RequiresHospitalization = &r.RequiresHospitalization
	case *DrugRecord:
		row.CumCode = optStr(r.CumCode)
		row.Active = r.Active
		row.AtcCode = r.AtcCode
		row.ActiveIngredient = optStr(r.ActiveIngredient)
		row.BrandName = r.BrandName
		row.Concentration = optStr(r.Concentration)
		row.PharmaceuticalForm = optStr(r.PharmaceuticalForm)
		row.RoutesOfAdministration = optStr(strings.Join(r.RoutesOfAdministration, ", "))
		row.Presentation = optStr(r.Presentation)
		row.UnitPrice = r.UnitPrice
		row.SalePrice = r.SalePrice
		row.Manufacturer = r.Manufacturer
		row.SanitaryRegistration = r.SanitaryRegistration
		if r.RegistrationExpiresOn != nil {
			row.RegistrationExpiresOn = optStr(r.RegistrationExpiresOn.Format(time.DateOnly))
		}
		row.IsInNationalFormulary = &r.IsInNationalFormulary
		row.RequiresPrescription = &r.RequiresPrescription
		row.IsControlledSubstance = &r.IsControlledSubstance
	case *SupplyRecord:
		row.Code = optStr(r.Code)
		row.Description = optStr(r.Description)
		row.Category = optStr(r.Category)
		row.Active = r.Active
		row.Unit = r.Unit
		row.UnitPrice = r.UnitPrice
		row.Manufacturer = r.Manufacturer
		row.RequiresSterilization = &r.RequiresSterilization
	}
	return row
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
