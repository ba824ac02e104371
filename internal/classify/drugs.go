package classify

import "strings"

// Routes of administration.
const (
	RouteOral          = "Oral"
	RouteIntravenous   = "Intravenous"
	RouteIntramuscular = "Intramuscular"
	RouteSubcutaneous  = "Subcutaneous"
	RouteSublingual    = "Sublingual"
	RouteTransdermal   = "Transdermal"
	RouteInhalation    = "Inhalation"
	RouteOphthalmic    = "Ophthalmic"
	RouteOtic          = "Otic"
	RouteNasal         = "Nasal"
	RouteRectal        = "Rectal"
	RouteVaginal       = "Vaginal"
	RouteTopical       = "Topical"
)

// Specific routes precede generic ones: "subcutanea" must not reach the
// topical "cutane" keyword, nor "transdermica" the topical "dermic".
var routeGroups = []group{
	{RouteIntravenous, []string{"intraven", "endoven", " iv "}},
	{RouteIntramuscular, []string{"intramuscular", " im "}},
	{RouteSubcutaneous, []string{"subcutane", " sc "}},
	{RouteSublingual, []string{"sublingual"}},
	{RouteTransdermal, []string{"transderm"}},
	{RouteInhalation, []string{"inhala", "inhalation", "respiratori"}},
	{RouteOphthalmic, []string{"oftalm", "ophthalm"}},
	{RouteOtic, []string{" otic", " auricular"}},
	{RouteNasal, []string{"nasal"}},
	{RouteRectal, []string{"rectal"}},
	{RouteVaginal, []string{"vaginal"}},
	{RouteTopical, []string{"topic", "cutane", "dermic", "dermal"}},
	{RouteOral, []string{"oral", "bucal"}},
}

// Route returns the first route named in raw, or Oral.
func Route(raw string) string {
	if v, ok := firstMatch(prepare(raw), routeGroups); ok {
		return v
	}
	return RouteOral
}

// Routes parses a list of routes separated by ',', ';' or '/'. Segments
// naming no known route are skipped and duplicates dropped. The result is
// never empty.
func Routes(raw string) []string {
	segments := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})
	var out []string
	seen := make(map[string]bool)
	for _, seg := range segments {
		v, ok := firstMatch(prepare(seg), routeGroups)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return []string{RouteOral}
	}
	return out
}

// Pharmaceutical forms.
const (
	FormTablet      = "Tablet"
	FormCapsule     = "Capsule"
	FormInjection   = "Injection"
	FormSyrup       = "Syrup"
	FormSuspension  = "Suspension"
	FormDrops       = "Drops"
	FormSolution    = "Solution"
	FormCream       = "Cream"
	FormOintment    = "Ointment"
	FormGel         = "Gel"
	FormInhaler     = "Inhaler"
	FormPatch       = "Patch"
	FormSuppository = "Suppository"
	FormPowder      = "Powder"
	FormOther       = "Other"
)

// "solucion inyectable" is an injection and "polvo para solucion
// inyectable" too, so injection is checked first.
var formGroups = []group{
	{FormInjection, []string{"inyect", "inject", "ampolla", "ampoule", " vial"}},
	{FormTablet, []string{"tableta", "tablet", "comprimido", "gragea"}},
	{FormCapsule, []string{"capsul"}},
	{FormSyrup, []string{"jarabe", "syrup", "elixir"}},
	{FormSuspension, []string{"suspension"}},
	{FormDrops, []string{"gotas", "drops"}},
	{FormSolution, []string{"solucion", "solution"}},
	{FormCream, []string{"crema", "cream"}},
	{FormOintment, []string{"unguento", "ointment", "pomada"}},
	{FormGel, []string{" gel "}},
	{FormInhaler, []string{"inhalador", "inhaler", "aerosol"}},
	{FormPatch, []string{"parche", "patch"}},
	{FormSuppository, []string{"supositorio", "suppositor", "ovulo"}},
	{FormPowder, []string{"polvo", "powder", "granulado"}},
}

// PharmaceuticalForm normalises a free-text dosage form, or Other.
func PharmaceuticalForm(raw string) string {
	if v, ok := firstMatch(prepare(raw), formGroups); ok {
		return v
	}
	return FormOther
}

// Ingredients under special control (Fondo Nacional de Estupefacientes
// monopoly list and common psychotropics), Spanish and English spellings.
var controlledIngredients = []string{
	"morfina", "morphine",
	"fentanil", "fentanyl",
	"oxicodona", "oxycodone",
	"hidromorfona", "hydromorphone",
	"metadona", "methadone",
	"codeina", "codeine",
	"meperidina", "petidina", "pethidine",
	"buprenorfina", "buprenorphine",
	"tramadol",
	"ketamina", "ketamine",
	"midazolam", "diazepam", "alprazolam", "clonazepam", "lorazepam", "triazolam",
	"fenobarbital", "phenobarbital",
	"metilfenidato", "methylphenidate",
	"cocaina", "cocaine",
	"remifentanil",
}

// IsControlledSubstance reports whether an active ingredient is on the
// controlled list.
func IsControlledSubstance(activeIngredient string) bool {
	return containsAny(prepare(activeIngredient), controlledIngredients)
}
