package domain

import "time"

// Address is a normalized reverse-geocoding result.
type Address struct {
	Road          string `json:"road,omitempty"`
	HouseNumber   string `json:"house_number,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Postcode      string `json:"postcode,omitempty"`
	Hamlet        string `json:"hamlet,omitempty"`
	County        string `json:"county,omitempty"`
	Formatted     string `json:"formatted"`
	FullAddress   string `json:"full_address,omitempty"`
}

// HighwaySegment is one mapped piece of a numbered highway.
type HighwaySegment struct {
	Ref      string     `json:"ref"`
	Name     string     `json:"name,omitempty"`
	Geometry []GeoPoint `json:"geometry"`
}

// Milestone is a physical kilometer marker.
type Milestone struct {
	Location GeoPoint `json:"location"`
	Km       float64  `json:"km"`
}

// KmMethod names how a kilometer estimate was derived.
type KmMethod string

const (
	KmExact         KmMethod = "exact"
	KmNearest       KmMethod = "nearest"
	KmInterpolation KmMethod = "interpolation"
	KmExtrapolation KmMethod = "extrapolation"
)

// KmEstimate is a kilometer position along a highway.
type KmEstimate struct {
	Km        float64  `json:"km"`
	Estimated bool     `json:"estimated"`
	Method    KmMethod `json:"method"`
	// Distance is meters from the reconstructed line, or to the milestone
	// for the exact and nearest methods.
	Distance float64 `json:"distance_m"`
}

// HighwayInfo identifies the highway at a point.
type HighwayInfo struct {
	Ref      string      `json:"ref"`
	Name     string      `json:"name,omitempty"`
	Estimate *KmEstimate `json:"estimate,omitempty"`

	// Geometry is the reconstructed polyline. Payloads handed to capture
	// records drop it; see WithoutGeometry.
	Geometry []GeoPoint `json:"geometry,omitempty"`
}

// WithoutGeometry returns a copy of h without the polyline.
func (h HighwayInfo) WithoutGeometry() HighwayInfo {
	h.Geometry = nil
	return h
}

// Category is the fixed landmark classification.
type Category string

const (
	CategoryHistoric  Category = "historic"
	CategoryArtwork   Category = "artwork"
	CategoryStructure Category = "structure"
	CategoryNatural   Category = "natural"
	CategoryTourism   Category = "tourism"
	CategoryReligious Category = "religious"
	CategoryLeisure   Category = "leisure"
	CategoryAmenity   Category = "amenity"
	CategoryShop      Category = "shop"
	CategoryBuilding  Category = "building"
	CategoryPlace     Category = "place"
	CategoryLandmark  Category = "landmark"
	CategoryOther     Category = "other"
)

// LandmarkSource tags the provider a landmark came from.
type LandmarkSource string

const (
	SourceOverpass  LandmarkSource = "overpass"
	SourceNominatim LandmarkSource = "nominatim"
	SourceWikidata  LandmarkSource = "wikidata"
)

// Landmark is a named feature near a point.
type Landmark struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Category  Category       `json:"category"`
	Icon      string         `json:"icon"`
	Distance  float64        `json:"distance_m"`
	Source    LandmarkSource `json:"source"`
	Relevance float64        `json:"relevance"`
	Location  GeoPoint       `json:"location"`
}

// Outcome is the status part of a Result.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Outcomes reports how each part of a LocationInfo was resolved.
type Outcomes struct {
	Address   Outcome `json:"address"`
	Highway   Outcome `json:"highway"`
	Landmarks Outcome `json:"landmarks"`
}

// LocationInfo is the enrichment payload attached to a capture.
type LocationInfo struct {
	Point      GeoPoint     `json:"point"`
	Geohash    string       `json:"geohash"`
	Address    *Address     `json:"address"`
	Highway    *HighwayInfo `json:"highway"`
	Landmarks  []Landmark   `json:"landmarks"`
	Outcomes   Outcomes     `json:"outcomes"`
	ResolvedAt time.Time    `json:"resolved_at"`
}

// OutcomeOf extracts the status part of a result.
func OutcomeOf[T any](r Result[T]) Outcome {
	return Outcome{Status: r.Status, Reason: r.Reason}
}
