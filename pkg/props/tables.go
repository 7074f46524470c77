package props

// Tables holds the label driven defaults of the classifier. Maps keyed by
// label test membership; the ordered slices keep their order.
type Tables struct {
	GroundLevel string
	Level       string
	UpperLevel  string
	Levels      []string

	Suffixes []Suffix
	Aliases  map[string]string

	Corridor map[string]bool
	Block    map[string]bool
	Wall     map[string]bool
	Symbol   map[string]bool
	DepthMap map[string]bool
	Well     map[string]bool
	CatFlap  map[string]bool
	Hidden   map[string]bool
	Street   map[string]bool

	// SymbolPrefixes mark as symbols the labels starting with one of them.
	SymbolPrefixes []string

	TypeHeights      []TypeValue
	Heights          map[string]float64
	TypeHeightShifts []TypeValue
	HeightShifts     map[string]float64

	WellReadModes map[string]string
}

// Suffix is a label word that sets a property when present.
type Suffix struct {
	Word     string
	Property string
}

// TypeValue associates a default to a category flag.
type TypeValue struct {
	Type  string
	Value float64
}

func set(labels ...string) map[string]bool {
	m := make(map[string]bool, len(labels))
	for _, l := range labels {
		m[l] = true
	}
	return m
}

var depthMapNames = []string{
	"profondeurs esc_esc_public_accessible",
	"profondeurs galeries_inf_public_accessible",
	"profondeurs galeries_sup_public_accessible",
	"profondeurs_metro_public_accessible",
	"profondeurs_tech_public_accessible",
}

// DefaultTables are the tables used by maps that do not declare their
// categories explicitly.
var DefaultTables = &Tables{
	GroundLevel: "surf",
	Level:       "sup",
	UpperLevel:  "surf",
	Levels:      []string{"sup", "inf", "esc", "tech", "surf", "pe", "metro"},

	Suffixes: []Suffix{
		{"inf", "level"},
		{"tech", "level"},
		{"gtech", "level"},
		{"GTech", "level"},
		{"surf", "level"},
		{"metro", "level"},
		{"seine", "level"},
		{"private", "private"},
		{"inaccessibles", "inaccessible"},
		{"inaccessible", "inaccessible"},
		{"anciennes", "inaccessible"},
	},
	Aliases: map[string]string{
		"GTech":         "tech",
		"gtech":         "tech",
		"inaccessibles": "inaccessible",
		"anciennes":     "inaccessible",
	},

	Corridor: set(
		"galeries",
		"galeries big sud",
		"piliers a bras",
		"inaccessible",
		"galeries agrandissements",
		"oss off",
		"anciennes galeries big",
		"aqueduc",
		"remblai epais",
		"remblai leger",
		"ebauches",
		"metro",
		"esc",
		"escaliers",
		"escaliers anciennes galeries big",
		"galeries techniques",
		"galeries techniques despe",
	),
	Block: set(
		"calcaire 2010", "calcaire ciel ouvert",
		"calcaire masse2", "calcaire masse", "calcaire med",
		"calcaire sup", "calcaire vdg",
		"piliers a bras",
		"piliers",
		"maconneries",
		"maçonneries",
		"maçonneries anciennes galeries big",
		"hagues",
		"hagues effondrees",
		"cuves",
		"mur",
		"mur_ouvert",
		"bassin",
		"bassin_recouvert",
		"rose",
		"repetiteur",
		"eau",
		"grille",
		"porte",
		"porte_ouverte",
		"passage", "grille-porte",
	),
	Wall:   set("grilles"),
	Symbol: set("symboles", "marches", "stair_symbol"),

	SymbolPrefixes: []string{
		"fontis", "lys", "grande_plaque", "ossuaire", "rose", "arche",
	},

	DepthMap: set(
		"profondeurs esc",
		"profondeurs galeries",
		"profondeurs",
	),
	Well: set(
		"échelle vers", "PSh", "PSh vers",
		"PE", "PE anciennes galeries big",
		"PS", "PS anciennes galeries big",
		"PSh anciennes galeries big",
		"P ossements",
		"P ossements anciennes galeries big",
		"echelle", "échelle", "échelle anciennes galeries big",
		"sans", "PS sans",
		"PSh sans",
		"PS_sq",
	),
	CatFlap: set(
		"chatieres v3",
		"chatieres private",
		"bas",
		"injecté",
	),
	Hidden: set(append([]string{
		"indications_big_2010", "a_verifier", "bord", "bord_sud",
		"légende_alt", "découpage", "raccords plan 2D",
		"raccords 2D",
		"masque vdg", "masque cimetière", "masque plage",
		"agrandissement vdg", "agrandissement cimetière",
		"agrandissement plage", "agrandissements fond",
		"couleur_fond", "couleur_fond sud",
		"planches", "planches fond",
		"lambert93",
	}, depthMapNames...)...),
	Street: set("plaques rues"),

	TypeHeights: []TypeValue{
		{"corridor", 2},
		{"stair", 1},
		{"block", 1},
		{"symbol", 0.3},
	},
	Heights: map[string]float64{
		"esc":                            1,
		"cuves":                          1.5,
		"plaques rues":                   0.5,
		"plaques rues volées":            0.5,
		"repetiteur":                     1,
		"bassin":                         0.3,
		"bassin_recouvert":               0.3,
		"eau":                            0.2,
		"rose":                           0.2,
		"remblai leger":                  1.2,
		"remblai epais":                  0.5,
		"remblai leger_inf":              1.2,
		"remblai epais_inf":              0.5,
		"hagues effondrees":              1.2,
		"sans":                           1.5,
		"PS sans":                        1.5,
		"echelle":                        1.5,
		"échelle":                        1.5,
		"échelle anciennes galeries big": 1.5,
		"PSh sans":                       1.5,
		"PE":                             10.5,
		"PE anciennes galeries big":      -10,
		"mur":                            2,
	},
	TypeHeightShifts: []TypeValue{
		{"corridor", 0},
		{"street_sign", 1.5},
		{"symbol", 2.5},
	},
	HeightShifts: map[string]float64{
		"aqueduc":                         10,
		"fontis":                          2.5,
		"lys":                             5,
		"grande_plaque":                   5,
		"chatieres v3":                    0.5,
		"chatieres private":               0.5,
		"chatieres v3_inf":                0.5,
		"chatieres private_inf":           0.5,
		"injecté":                         0.5,
		"bas":                             0.5,
		"ossuaire":                        5,
		"stair_symbol":                    5,
		"etiage":                          2.5,
		"etiage_water_tri":                2.5,
		"etiage_wall_tri":                 2.5,
		"etiage_line":                     2.5,
		"rose":                            2.5,
		"remblai leger":                   0.8,
		"remblai epais":                   1.5,
		"remblai leger_inf":               0.8,
		"remblai epais_inf":               1.5,
		"remblai leger inaccessibles":     0.8,
		"remblai epais inaccessibles":     1.5,
		"remblai leger inaccessibles_inf": 0.8,
		"remblai epais inaccessibles_inf": 1.5,
		"calcaire 2010":                   0,
		"calcaire vdg":                    0,
		"PE":                              0,
		"PE anciennes galeries big":       -9,
	},

	WellReadModes: map[string]string{
		"PS":                       "path",
		"PS galeries big":          "path",
		"PE":                       "path",
		"PE galeries big":          "path",
		"P ossements":              "path",
		"P ossements galeries big": "path",
		"PSh":                      "group",
		"PSh galeries big":         "group",
		"PSh vers":                 "group",
		"colim":                    "group",
		"échelle":                  "group",
		"échelle vers":             "group",
		"échelle galeries big":     "group",
		"PSh sans":                 "group",
		"sans":                     "path",
	},
}
