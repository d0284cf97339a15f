package builtin

// CountryNames returns the historical-name to common-name table used for the
// survey's Country column.
func CountryNames() CanonicalTable {
	return NewCanonicalTable(map[string]string{
		"Congo, Republic of the...":                            "Congo",
		"Democratics People's Republic of Korea":               "North Korea",
		"Hong Kong (S.A.R.)":                                   "Hong Kong",
		"Iran, Islamic Republic of...":                         "Iran",
		"Micronesia, Federated States of...":                   "Micronesia",
		"Republic of Korea":                                    "South Korea",
		"Republic of Moldova":                                  "Moldova",
		"Republic of North Macedonia":                          "North Macedonia",
		"Russian Federation":                                   "Russia",
		"Syrian Arab Republic":                                 "Syria",
		"United Kingdom of Great Britain and Northern Ireland": "United Kingdom",
		"United Republic of Tanzania":                          "Tanzania",
		"United States of America":                             "United States",
		"Venezuela, Bolivarian Republic of...":                 "Venezuela",
		"Viet Nam":                                             "Vietnam",
	})
}

// AgePreferNotToSay is the Age answer that carries no value.
const AgePreferNotToSay = "Prefer not to say"

// AgeBuckets returns the age-bracket to midpoint table used for the survey's
// Age column.
func AgeBuckets() BucketTable {
	return NewBucketTable(map[string]float64{
		"Under 18 years old": 17,
		"18-24 years old":    21,
		"25-34 years old":    29.5,
		"35-44 years old":    39.5,
		"45-54 years old":    49.5,
		"55-64 years old":    59.5,
		"65 years or older":  65,
	}, AgePreferNotToSay)
}

// NamedCanonicalTable resolves a built-in canonical table by name.
func NamedCanonicalTable(name string) (CanonicalTable, bool) {
	switch name {
	case "country":
		return CountryNames(), true
	}
	return CanonicalTable{}, false
}

// NamedBucketTable resolves a built-in bucket table by name.
func NamedBucketTable(name string) (BucketTable, bool) {
	switch name {
	case "age":
		return AgeBuckets(), true
	}
	return BucketTable{}, false
}
