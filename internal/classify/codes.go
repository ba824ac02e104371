package classify

import (
	"strings"

	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/normalize"
)

// Procedure categories.
const (
	CategorySurgical     = "Surgical"
	CategoryImaging      = "Imaging"
	CategoryConsultation = "Consultation"
	CategoryLaboratory   = "Laboratory"
	CategoryTherapy      = "Therapy"
	CategoryDiagnostic   = "Diagnostic"
	CategoryProcedure    = "Procedure"
)

// DiagnosisUnspecified is the category of codes without a known chapter.
const DiagnosisUnspecified = "Unspecified"

// CUPS two-digit chapter prefixes. 01-86 are surgical chapters and are
// handled by range in ProcedureCategory.
var procedurePrefixes = map[string]string{
	"87": CategoryImaging,
	"88": CategoryImaging,
	"89": CategoryConsultation,
	"90": CategoryLaboratory,
	"91": CategoryLaboratory,
	"92": CategoryImaging,
	"93": CategoryTherapy,
	"94": CategoryTherapy,
	"95": CategoryDiagnostic,
	"96": CategoryTherapy,
}

// ProcedureCategory maps a CUPS code to its category by two-digit prefix.
// Unmapped prefixes are Procedure.
func ProcedureCategory(code string) string {
	c := normalize.Code(code)
	if len(c) < 2 || !isDigit(c[0]) || !isDigit(c[1]) {
		return CategoryProcedure
	}
	prefix := c[:2]
	if cat, ok := procedurePrefixes[prefix]; ok {
		return cat
	}
	if prefix >= "01" && prefix <= "86" {
		return CategorySurgical
	}
	return CategoryProcedure
}

var diagnosisChapters = map[byte]string{
	'A': "Certain infectious and parasitic diseases",
	'B': "Certain infectious and parasitic diseases",
	'C': "Neoplasms",
	'D': "Neoplasms and diseases of the blood",
	'E': "Endocrine, nutritional and metabolic diseases",
	'F': "Mental and behavioural disorders",
	'G': "Diseases of the nervous system",
	'H': "Diseases of the eye, ear and mastoid process",
	'I': "Diseases of the circulatory system",
	'J': "Diseases of the respiratory system",
	'K': "Diseases of the digestive system",
	'L': "Diseases of the skin and subcutaneous tissue",
	'M': "Diseases of the musculoskeletal system and connective tissue",
	'N': "Diseases of the genitourinary system",
	'O': "Pregnancy, childbirth and the puerperium",
	'P': "Certain conditions originating in the perinatal period",
	'Q': "Congenital malformations and chromosomal abnormalities",
	'R': "Symptoms, signs and abnormal clinical findings",
	'S': "Injury, poisoning and other consequences of external causes",
	'T': "Injury, poisoning and other consequences of external causes",
	'U': "Codes for special purposes",
	'V': "External causes of morbidity",
	'W': "External causes of morbidity",
	'X': "External causes of morbidity",
	'Y': "External causes of morbidity",
	'Z': "Factors influencing health status",
}

// DiagnosisCategory maps a CIE-10 code to its chapter by leading letter.
func DiagnosisCategory(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return DiagnosisUnspecified
	}
	if cat, ok := diagnosisChapters[c[0]]; ok {
		return cat
	}
	return DiagnosisUnspecified
}

// DiagnosisChapter returns the chapter title matching v case- and
// accent-insensitively, or "" when v names no chapter.
func DiagnosisChapter(v string) string {
	k := normalize.Fold(strings.TrimSpace(v))
	if k == "" {
		return ""
	}
	for _, ch := range diagnosisChapters {
		if normalize.Fold(ch) == k {
			return ch
		}
	}
	return ""
}

// ProcedureMetadata infers operational attributes from a procedure's
// category and current tariff.
func ProcedureMetadata(category string, tariff *float64) model.ProcedureMetadata {
	var m model.ProcedureMetadata
	switch category {
	case CategorySurgical:
		m = model.ProcedureMetadata{RequiresAuthorization: true, AverageDurationMinutes: 120, ComplexityLevel: model.ComplexityHigh, RequiresOperatingRoom: true}
	case CategoryImaging:
		m = model.ProcedureMetadata{RequiresAuthorization: true, AverageDurationMinutes: 45, ComplexityLevel: model.ComplexityMedium}
	case CategoryTherapy:
		m = model.ProcedureMetadata{RequiresAuthorization: true, AverageDurationMinutes: 45, ComplexityLevel: model.ComplexityMedium}
	case CategoryDiagnostic:
		m = model.ProcedureMetadata{AverageDurationMinutes: 30, ComplexityLevel: model.ComplexityMedium}
	case CategoryConsultation:
		m = model.ProcedureMetadata{AverageDurationMinutes: 20, ComplexityLevel: model.ComplexityLow}
	case CategoryLaboratory:
		m = model.ProcedureMetadata{AverageDurationMinutes: 15, ComplexityLevel: model.ComplexityLow}
	default:
		m = model.ProcedureMetadata{AverageDurationMinutes: 30, ComplexityLevel: model.ComplexityLow}
	}

	if tariff == nil {
		return m
	}
	switch {
	case *tariff >= 1_000_000:
		m.ComplexityLevel = model.ComplexityVeryHigh
		m.RequiresAuthorization = true
	case *tariff >= 250_000 && m.ComplexityLevel == model.ComplexityLow:
		m.ComplexityLevel = model.ComplexityMedium
	}
	return m
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
