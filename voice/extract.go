// Package voice extracts crop and quantity from free-text farmer input.
package voice

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// UnknownCrop is reported when no alias matches the input text.
const UnknownCrop = "unknown"

// cropAliases maps Hindi/Hinglish and English crop words onto the normalized
// names the price model understands.
var cropAliases = map[string]string{
	// vegetables
	"tamatar":     "tomato",
	"pyaz":        "onion",
	"piyaj":       "onion",
	"aloo":        "potato",
	"gajar":       "carrot",
	"patta gobhi": "cabbage",
	"phool gobhi": "cauliflower",
	"phoolkopi":   "cauliflower",
	"baigan":      "brinjal",
	"baingan":     "brinjal",
	"bhindi":      "bhindi",
	"lady finger": "bhindi",
	"mirch":       "green chilli",
	"hari mirch":  "green chilli",
	"lahsun":      "garlic",
	"adrak":       "ginger",

	// grains
	"gehun":  "wheat",
	"gehu":   "wheat",
	"gandum": "wheat",
	"wheat":  "wheat",
	"chawal": "rice",
	"rice":   "rice",
	"makka":  "maize",
	"maize":  "maize",
	"bajra":  "bajra",
	"jowar":  "jowar",
	"dhan":   "paddy",
	"paddy":  "paddy",

	// fruits
	"seb":    "apple",
	"apple":  "apple",
	"kela":   "banana",
	"banana": "banana",
	"aam":    "mango",
	"mango":  "mango",

	// english vegetables
	"tomato":      "tomato",
	"onion":       "onion",
	"potato":      "potato",
	"carrot":      "carrot",
	"cabbage":     "cabbage",
	"cauliflower": "cauliflower",
	"garlic":      "garlic",
	"ginger":      "ginger",
}

var quantityPattern = regexp.MustCompile(`(\d+)\s*(kilo|kgs|kg|bags|sacks|units)?`)

// aliasesByLength holds alias keys longest-first so multi-word crops like
// "patta gobhi" win over their substrings.
var aliasesByLength = func() []string {
	keys := make([]string, 0, len(cropAliases))
	for key := range cropAliases {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Result is the structured reading of one utterance.
type Result struct {
	Crop     string `json:"crop"`
	Quantity int    `json:"quantity"`
}

// Extract parses crop name and quantity out of text such as
// "Mere paas 50 kilo tamatar hai".
func Extract(text string) Result {
	lowered := strings.ToLower(strings.TrimSpace(text))

	quantity := 0
	if match := quantityPattern.FindStringSubmatch(lowered); match != nil {
		quantity, _ = strconv.Atoi(match[1])
	}

	crop := UnknownCrop
	for _, alias := range aliasesByLength {
		if strings.Contains(lowered, alias) {
			crop = cropAliases[alias]
			break
		}
	}

	return Result{Crop: crop, Quantity: quantity}
}
