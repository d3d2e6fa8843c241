package usecases

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// ExtractPOIType derives a type and category from OSM tags, most specific
// tag first.
func ExtractPOIType(tags map[string]string) (string, domain.Category) {
	switch {
	case tags["historic"] != "":
		return tags["historic"], domain.CategoryHistoric
	case tags["tourism"] == "artwork" || tags["artwork_type"] != "":
		return firstNonEmpty(tags["artwork_type"], "artwork"), domain.CategoryArtwork
	case tags["tourism"] != "":
		return tags["tourism"], domain.CategoryTourism
	case tags["man_made"] != "":
		return tags["man_made"], domain.CategoryStructure
	case tags["bridge"] != "":
		return "bridge", domain.CategoryStructure
	case tags["natural"] != "":
		return tags["natural"], domain.CategoryNatural
	case tags["waterway"] != "":
		return tags["waterway"], domain.CategoryNatural
	case tags["junction"] != "":
		return "junction", domain.CategoryStructure
	case tags["leisure"] != "":
		return tags["leisure"], domain.CategoryLeisure
	case tags["amenity"] != "":
		return tags["amenity"], domain.CategoryAmenity
	case tags["shop"] != "":
		return tags["shop"], domain.CategoryShop
	case tags["building"] != "" && tags["building"] != "yes":
		return tags["building"], domain.CategoryBuilding
	case tags["place"] != "":
		return tags["place"], domain.CategoryPlace
	}
	return "other", domain.CategoryOther
}

var nominatimClasses = map[string]domain.Category{
	"historic": domain.CategoryHistoric,
	"tourism":  domain.CategoryTourism,
	"amenity":  domain.CategoryAmenity,
	"shop":     domain.CategoryShop,
	"leisure":  domain.CategoryLeisure,
	"man_made": domain.CategoryStructure,
	"building": domain.CategoryBuilding,
	"place":    domain.CategoryPlace,
	"highway":  domain.CategoryStructure,
	"natural":  domain.CategoryNatural,
	"waterway": domain.CategoryNatural,
	"junction": domain.CategoryStructure,
}

// MapNominatimClass maps a Nominatim result class to a category.
func MapNominatimClass(class string) domain.Category {
	if c, ok := nominatimClasses[class]; ok {
		return c
	}
	return domain.CategoryOther
}

var instanceRules = []struct {
	keywords []string
	category domain.Category
}{
	{[]string{"monument", "memorial", "histórico"}, domain.CategoryHistoric},
	{[]string{"artwork", "sculpture", "escultura", "mural"}, domain.CategoryArtwork},
	{[]string{"bridge", "viaduct", "ponte", "viaduto"}, domain.CategoryStructure},
	{[]string{"church", "igreja", "chapel"}, domain.CategoryReligious},
	{[]string{"museum", "museu"}, domain.CategoryTourism},
	{[]string{"park", "parque", "square", "praça"}, domain.CategoryLeisure},
	{[]string{"building", "edificio", "edifício"}, domain.CategoryBuilding},
}

// MapWikidataInstance maps an instance-of label to a category by keyword.
func MapWikidataInstance(label string) domain.Category {
	l := strings.ToLower(label)
	for _, rule := range instanceRules {
		for _, kw := range rule.keywords {
			if strings.Contains(l, kw) {
				return rule.category
			}
		}
	}
	return domain.CategoryLandmark
}

var categoryBonus = map[domain.Category]float64{
	domain.CategoryHistoric:  50,
	domain.CategoryArtwork:   50,
	domain.CategoryLandmark:  45,
	domain.CategoryStructure: 40,
	domain.CategoryNatural:   35,
	domain.CategoryTourism:   35,
	domain.CategoryReligious: 30,
	domain.CategoryLeisure:   25,
	domain.CategoryBuilding:  20,
	domain.CategoryAmenity:   15,
	domain.CategoryPlace:     15,
	domain.CategoryShop:      10,
	domain.CategoryOther:     5,
}

const (
	unknownCategoryBonus = 10
	culturalBonus        = 20
)

// Relevance scores a landmark: proximity dominates, distinctive categories
// and knowledge-graph entities are weighted up.
func Relevance(category domain.Category, distance float64, cultural bool) float64 {
	score := math.Max(0, 100-distance/5)
	if bonus, ok := categoryBonus[category]; ok {
		score += bonus
	} else {
		score += unknownCategoryBonus
	}
	if cultural {
		score += culturalBonus
	}
	return score
}

// DedupeLandmarks collapses landmarks with similar names, keeping the more
// relevant one. Order of first appearance is kept.
func DedupeLandmarks(in []domain.Landmark) []domain.Landmark {
	type kept struct {
		name     string
		landmark domain.Landmark
	}
	var out []kept

	for _, lm := range in {
		name := strings.ToLower(strings.TrimSpace(lm.Name))
		dup := false
		for i := range out {
			if SimilarNames(name, out[i].name) {
				if lm.Relevance > out[i].landmark.Relevance {
					out[i] = kept{name: name, landmark: lm}
				}
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, kept{name: name, landmark: lm})
		}
	}

	res := make([]domain.Landmark, len(out))
	for i, k := range out {
		res[i] = k.landmark
	}
	return res
}

// SimilarNames reports whether two normalized names likely refer to the
// same feature: equal, one containing the other, or token Jaccard above 0.6.
func SimilarNames(a, b string) bool {
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	ta := tokenSet(a)
	tb := tokenSet(b)
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return union > 0 && float64(inter)/float64(union) > 0.6
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

// RankLandmarks sorts by relevance, highest first, and keeps the top n.
func RankLandmarks(in []domain.Landmark, n int) []domain.Landmark {
	sort.SliceStable(in, func(i, j int) bool { return in[i].Relevance > in[j].Relevance })
	if n > 0 && len(in) > n {
		in = in[:n]
	}
	return in
}

var unlabeledItem = regexp.MustCompile(`^Q\d+$`)

// labeled reports whether a knowledge-graph name is a real label rather
// than the bare item id the label service falls back to.
func labeled(name string) bool {
	return name != "" && !unlabeledItem.MatchString(name)
}

var typeIcons = map[string]string{
	// amenities
	"fuel": "⛽", "restaurant": "🍽️", "fast_food": "🍔", "cafe": "☕",
	"hospital": "🏥", "pharmacy": "💊", "school": "🏫", "bank": "🏦",
	"police": "🚔", "fire_station": "🚒", "place_of_worship": "⛪", "supermarket": "🛒",
	"convenience": "🏪", "hotel": "🏨", "parking": "🅿️", "bus_station": "🚏",
	"university": "🎓", "library": "📚", "cinema": "🎬", "theatre": "🎭",

	// structures
	"bridge": "🌉", "viaduct": "🌉", "tower": "🗼", "water_tower": "🗼",
	"lighthouse": "🗼", "pier": "🌊", "windmill": "🌬️",

	// tourism
	"museum": "🏛️", "attraction": "⭐", "viewpoint": "👁️", "zoo": "🦁",
	"theme_park": "🎢", "aquarium": "🐠", "gallery": "🖼️",

	// art
	"artwork": "🎨", "sculpture": "🗿", "statue": "🗽", "mural": "🎨",
	"monument": "🏛️", "memorial": "🕯️",

	// historic
	"castle": "🏰", "ruins": "🏚️", "archaeological_site": "🏺", "fort": "🏰",
	"battlefield": "⚔️", "building": "🏛️", "church": "⛪", "chapel": "⛪",

	// leisure
	"park": "🌳", "garden": "🌷", "playground": "🛝", "sports_centre": "🏟️",
	"stadium": "🏟️", "swimming_pool": "🏊", "beach": "🏖️",

	// places
	"square": "🏛️", "neighbourhood": "🏘️", "suburb": "🏘️",

	// natural
	"river": "🏞️", "stream": "🏞️", "creek": "🏞️", "canal": "🏞️",
	"lake": "🏞️", "pond": "🏞️", "reservoir": "🏞️",
	"peak": "⛰️", "hill": "⛰️", "mountain": "⛰️", "ridge": "⛰️",
	"cliff": "🏔️", "valley": "🏔️", "cave_entrance": "🕳️",
	"spring": "💧", "waterfall": "💧", "wetland": "🌿",
	"wood": "🌲", "tree": "🌳", "rock": "🪨",

	"junction": "🔀",
}

var categoryIcons = map[domain.Category]string{
	domain.CategoryHistoric:  "🏛️",
	domain.CategoryArtwork:   "🎨",
	domain.CategoryStructure: "🌉",
	domain.CategoryNatural:   "🏞️",
	domain.CategoryTourism:   "📍",
	domain.CategoryReligious: "⛪",
	domain.CategoryLeisure:   "🌳",
	domain.CategoryAmenity:   "📌",
	domain.CategoryShop:      "🏪",
	domain.CategoryBuilding:  "🏢",
	domain.CategoryLandmark:  "🏛️",
	domain.CategoryPlace:     "📍",
}

const defaultIcon = "📌"

// LandmarkIcon picks an icon by type, then by category.
func LandmarkIcon(typ string, category domain.Category) string {
	if icon, ok := typeIcons[strings.ToLower(typ)]; ok {
		return icon
	}
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return defaultIcon
}
