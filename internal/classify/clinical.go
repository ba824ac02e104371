package classify

import (
	"strings"

	"github.com/gyeh/refload/internal/model"
)

// Checked in order; the first group with a hit decides.
var severityGroups = []group{
	{model.SeverityCritical, []string{"crisis", "acute", "agud", "sever", "grave", "critic"}},
	{model.SeveritySevere, []string{"cancer", "malignant tumor", "tumor maligno", "neoplasia maligna", "infarction", "infarto", "failure", "insuficiencia"}},
	{model.SeverityModerate, []string{"moderate", "moderad", "chronic", "cronic"}},
}

// Severity infers a diagnosis severity from its description. Descriptions
// matching no keyword are mild.
func Severity(description string) string {
	if v, ok := firstMatch(prepare(description), severityGroups); ok {
		return v
	}
	return model.SeverityMild
}

var chronicKeywords = []string{
	"chronic", "cronic",
	"diabetes", "hypertension", "hipertension",
	" asthma", " asma ",
	" epoc ", " copd ", "obstructiva cronica",
	"artritis", "arthritis", "artrosis", "osteoarthritis",
	"epilepsia", "epilepsy",
	"hipotiroidismo", "hypothyroidism",
	" vih ", " hiv ", "inmunodeficiencia humana",
	"parkinson", "alzheimer", "esclerosis multiple", "multiple sclerosis",
	"lupus",
}

// IsChronic reports whether a description names a chronic condition.
func IsChronic(description string) bool {
	return containsAny(prepare(description), chronicKeywords)
}

var hospitalizationKeywords = []string{
	"infarto", "infarction",
	"sepsis", "septic", "septico",
	"stroke", "accidente cerebrovascular",
	"hemorragia", "hemorrhage", "haemorrhage",
	"insuficiencia respiratoria", "respiratory failure",
	"insuficiencia cardiaca", "heart failure",
	"insuficiencia renal aguda", "acute renal failure", "acute kidney failure",
	"neumonia", "pneumonia",
	" shock", " choque",
	"embolia", "embolism",
	"peritonitis", "meningitis", "encefalitis", "encephalitis",
	"apendicitis", "appendicitis",
	"eclampsia", "politraumatismo", "polytrauma",
}

// Code prefixes whose diagnoses are managed as inpatient cases.
var hospitalizationPrefixes = []string{
	"I21", "I22", "I60", "I61", "I63",
	"A40", "A41",
	"J96", "N17", "R57", "S06", "O72",
}

// RequiresHospitalization reports whether a diagnosis usually requires
// admission, by description keyword or by code prefix.
func RequiresHospitalization(description, code string) bool {
	if containsAny(prepare(description), hospitalizationKeywords) {
		return true
	}
	c := strings.ToUpper(strings.TrimSpace(code))
	for _, p := range hospitalizationPrefixes {
		if strings.HasPrefix(c, p) {
			return true
		}
	}
	return false
}

// Injury types.
const (
	InjuryFracture    = "Fracture"
	InjuryDislocation = "Dislocation"
	InjurySprain      = "Sprain"
	InjuryBurn        = "Burn"
	InjuryFrostbite   = "Frostbite"
	InjuryPoisoning   = "Poisoning"
	InjuryAmputation  = "Amputation"
	InjuryCrushing    = "Crushing"
	InjuryOpenWound   = "Open wound"
	InjuryForeignBody = "Foreign body"
	InjuryContusion   = "Contusion"
	InjurySuperficial = "Superficial injury"
	InjuryOther       = "Other injury"
)

var injuryGroups = []group{
	{InjuryFracture, []string{"fractura", "fracture"}},
	{InjuryDislocation, []string{"luxacion", "dislocation"}},
	{InjurySprain, []string{"esguince", "torcedura", "sprain", "strain"}},
	{InjuryBurn, []string{"quemadura", "burn", "corrosion"}},
	{InjuryFrostbite, []string{"congelamiento", "frostbite"}},
	{InjuryPoisoning, []string{"envenenamiento", "intoxicacion", "poisoning", "efecto toxico", "toxic effect"}},
	{InjuryAmputation, []string{"amputacion", "amputation"}},
	{InjuryCrushing, []string{"aplastamiento", "crushing"}},
	{InjuryOpenWound, []string{"herida", "wound"}},
	{InjuryForeignBody, []string{"cuerpo extrano", "foreign body"}},
	{InjuryContusion, []string{"contusion"}},
	{InjurySuperficial, []string{"superficial"}},
}

// InjuryType classifies injury chapter codes (S and T). It returns "" for
// any other code.
func InjuryType(description, code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" || (c[0] != 'S' && c[0] != 'T') {
		return ""
	}
	if v, ok := firstMatch(prepare(description), injuryGroups); ok {
		return v
	}
	if c[0] == 'T' && len(c) >= 3 {
		switch n := c[1:3]; {
		case n >= "20" && n <= "32":
			return InjuryBurn
		case n >= "33" && n <= "35":
			return InjuryFrostbite
		case n >= "36" && n <= "65":
			return InjuryPoisoning
		}
	}
	return InjuryOther
}
