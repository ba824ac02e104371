package model

// EntityType describes one kind of reference data the pipeline can load.
type EntityType struct {
	Name       string // CLI selector, e.g. "cups"
	Label      string // human-readable, e.g. "procedures"
	Table      string // target table in the ref schema
	KeyColumn  string // natural-key column
	Scrapeable bool   // has external source adapters (false: file import only)
}

var (
	Procedures = EntityType{Name: "cups", Label: "procedures", Table: "procedures", KeyColumn: "code", Scrapeable: true}
	Diagnoses  = EntityType{Name: "diagnosticos", Label: "diagnoses", Table: "diagnoses", KeyColumn: "code", Scrapeable: true}
	Drugs      = EntityType{Name: "medicamentos", Label: "drugs", Table: "drugs", KeyColumn: "cum_code", Scrapeable: true}
	Supplies   = EntityType{Name: "materiales", Label: "supplies", Table: "supplies", KeyColumn: "code"}
)

// AllEntityTypes lists the supported entity types in canonical order.
var AllEntityTypes = []EntityType{Procedures, Diagnoses, Drugs, Supplies}

// EntityTypeByName returns the EntityType for the given CLI selector, or ok=false.
func EntityTypeByName(name string) (EntityType, bool) {
	for _, et := range AllEntityTypes {
		if et.Name == name {
			return et, true
		}
	}
	return EntityType{}, false
}

// EntityNames returns the selectors of all entity types.
func EntityNames() []string {
	names := make([]string, len(AllEntityTypes))
	for i, et := range AllEntityTypes {
		names[i] = et.Name
	}
	return names
}

// String implements fmt.Stringer.
func (e EntityType) String() string {
	return e.Name
}
