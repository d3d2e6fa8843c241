package domain

// GeocodedPlace holds the raw address fields of a reverse-geocoding hit.
// Empty strings mean the provider did not return the field.
type GeocodedPlace struct {
	Road          string
	HouseNumber   string
	Neighbourhood string
	Suburb        string
	City          string
	Town          string
	Village       string
	State         string
	Postcode      string
	Hamlet        string
	County        string
	DisplayName   string
}

// MapFeature is a tagged map element (node, or way/relation centre).
type MapFeature struct {
	ID       int64
	Kind     string // "node", "way" or "relation"
	Tags     map[string]string
	Location GeoPoint
}

// Tag returns the value of key, or "".
func (f MapFeature) Tag(key string) string {
	return f.Tags[key]
}

// HighwayData is the combined highway-geometry and milestone answer.
type HighwayData struct {
	Segments   []HighwaySegment
	Milestones []MapFeature
}

// SearchHit is a place returned by a bounded text/geometry search.
type SearchHit struct {
	Name     string
	Class    string
	Type     string
	Location GeoPoint
}

// KnowledgeHit is a geolocated knowledge-graph entity.
type KnowledgeHit struct {
	ItemID    string
	Name      string
	Instances []string // instance-of labels
	Location  GeoPoint
}
