package streeteasy

// areaCodes maps StreetEasy neighborhood names to the area codes used in
// search URLs.
var areaCodes = map[string]string{
	// Manhattan
	"Lower East Side": "109",
	"East Village":    "117",
	"Upper East Side": "139",

	// Brooklyn
	"Downtown Brooklyn":         "303",
	"Fort Greene":               "304",
	"Clinton Hill":              "305",
	"Bedford-Stuyvesant":        "306",
	"DUMBO":                     "307",
	"Brooklyn Heights":          "308",
	"Greenpoint":                "301",
	"Williamsburg":              "302",
	"Park Slope":                "319",
	"Carroll Gardens":           "321",
	"Cobble Hill":               "322",
	"Boerum Hill":               "323",
	"Gowanus":                   "324",
	"Crown Heights":             "325",
	"Prospect Heights":          "326",
	"Prospect Lefferts Gardens": "328",

	// Queens
	"Ridgewood": "414",
}

// AreaCode returns the site area code for a neighborhood name.
func AreaCode(name string) (string, bool) {
	code, ok := areaCodes[name]
	return code, ok
}
