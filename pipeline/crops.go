package pipeline

import "strings"

// cropAliases maps raw commodity names from the government dataset onto the
// supported-crop vocabulary. This table IS the set of crops the system can
// ever serve: a commodity without an entry is dropped during preparation.
var cropAliases = map[string]string{
	"tomato":                    "tomato",
	"onion":                     "onion",
	"potato":                    "potato",
	"wheat":                     "wheat",
	"rice":                      "rice",
	"bajra(pearl millet/cumbu)": "bajra",
	"jowar(sorghum)":            "jowar",
	"maize":                     "maize",
	"brinjal":                   "brinjal",
	"cabbage":                   "cabbage",
	"cauliflower":               "cauliflower",
	"green chilli":              "green chilli",
	"bhindi(ladies finger)":     "bhindi",
	"carrot":                    "carrot",
	"garlic":                    "garlic",
	"ginger(green)":             "ginger",
	"apple":                     "apple",
	"banana":                    "banana",
	"mango":                     "mango",
}

// MapCrop normalizes a raw commodity name and resolves it through the alias
// table. The second return is false when the commodity is not supported.
func MapCrop(raw string) (string, bool) {
	crop, ok := cropAliases[strings.ToLower(strings.TrimSpace(raw))]
	return crop, ok
}

// SupportedCrops returns the distinct crops the alias table can produce.
func SupportedCrops() []string {
	seen := make(map[string]struct{}, len(cropAliases))
	crops := make([]string, 0, len(cropAliases))
	for _, crop := range cropAliases {
		if _, ok := seen[crop]; ok {
			continue
		}
		seen[crop] = struct{}{}
		crops = append(crops, crop)
	}
	return crops
}
