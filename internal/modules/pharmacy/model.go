// README: Pharmacy directory records and the town vocabulary.
package pharmacy

// Pharmacy is one directory entry rendered as a link card in the widget.
type Pharmacy struct {
	Name     string `json:"name"`
	MapsLink string `json:"maps_link"`
}

// KnownTowns is the fallback town vocabulary used when the directory table
// is empty or unreachable. The live list comes from the pharmacies table.
var KnownTowns = []string{
	"San Juan",
	"Bayamón",
	"Carolina",
	"Ponce",
	"Caguas",
	"Guaynabo",
	"Arecibo",
	"Mayagüez",
	"Trujillo Alto",
	"Fajardo",
	"Humacao",
	"Aguadilla",
	"Cayey",
	"Vega Baja",
	"Manatí",
	"Dorado",
	"Isabela",
	"Yauco",
	"Cabo Rojo",
	"Río Grande",
}
