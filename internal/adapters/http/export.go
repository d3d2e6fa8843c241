package http

import (
	"bytes"
	"strconv"

	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-kml"
	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/usecases"
)

// Export formats accepted by /v1/location-info/export.
const (
	formatText    = "text"
	formatGeoJSON = "geojson"
	formatKML     = "kml"
)

// encodePolyline encodes a highway geometry with the Google polyline
// algorithm (lat, lon order, 1e5 precision).
func encodePolyline(points []domain.GeoPoint) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// locationFeatures renders info as a FeatureCollection: the capture point
// first, then one feature per landmark.
func locationFeatures(info *domain.LocationInfo) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	f := geojson.NewFeature(info.Point.Point())
	f.Properties["kind"] = "capture"
	f.Properties["geohash"] = info.Geohash
	f.Properties["resolved_at"] = info.ResolvedAt
	f.Properties["text"] = usecases.FormatLocationInfo(info)
	if info.Address != nil {
		f.Properties["address"] = info.Address.Formatted
		f.Properties["city"] = info.Address.City
		f.Properties["state"] = info.Address.State
	}
	if h := info.Highway; h != nil {
		f.Properties["highway"] = h.Ref
		if h.Estimate != nil {
			f.Properties["km"] = h.Estimate.Km
			f.Properties["km_estimated"] = h.Estimate.Estimated
		}
	}
	fc.Append(f)

	for _, lm := range info.Landmarks {
		lf := geojson.NewFeature(lm.Location.Point())
		lf.Properties["kind"] = "landmark"
		lf.Properties["name"] = lm.Name
		lf.Properties["type"] = lm.Type
		lf.Properties["category"] = string(lm.Category)
		lf.Properties["icon"] = lm.Icon
		lf.Properties["distance_m"] = lm.Distance
		lf.Properties["source"] = string(lm.Source)
		fc.Append(lf)
	}
	return fc
}

// locationKML renders info as a KML document with one placemark for the
// capture and a folder of landmark placemarks.
func locationKML(info *domain.LocationInfo) ([]byte, error) {
	name := info.Geohash
	if info.Address != nil && info.Address.Formatted != "" {
		name = info.Address.Formatted
	}

	data := []kml.Element{
		kml.Data("geohash", kml.Value(info.Geohash)),
	}
	if h := info.Highway; h != nil {
		data = append(data, kml.Data("highway", kml.Value(h.Ref)))
		if h.Estimate != nil {
			data = append(data, kml.Data("km", kml.Value(strconv.FormatFloat(h.Estimate.Km, 'f', -1, 64))))
		}
	}

	capture := kml.Placemark(
		kml.Name(name),
		kml.Description(usecases.FormatLocationInfo(info)),
		kml.ExtendedData(data...),
		kml.Point(kml.Coordinates(kml.Coordinate{Lon: info.Point.Lon, Lat: info.Point.Lat})),
	)

	landmarks := []kml.Element{kml.Name("Referências")}
	for _, lm := range info.Landmarks {
		landmarks = append(landmarks, kml.Placemark(
			kml.Name(lm.Icon+" "+lm.Name),
			kml.Description(lm.Type),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: lm.Location.Lon, Lat: lm.Location.Lat})),
		))
	}

	doc := kml.KML(kml.Document(capture, kml.Folder(landmarks...)))

	var buf bytes.Buffer
	if err := doc.WriteIndent(&buf, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
