package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// columnAliases maps each field to the header names accepted for it. The
// Portuguese names are the ones used by the federal highway police exports.
var columnAliases = map[string][]string{
	"br":           {"br", "rodovia"},
	"km":           {"km"},
	"kind":         {"kind", "tipo"},
	"description":  {"description", "descricao", "descrição"},
	"direction":    {"direction", "sentido"},
	"municipality": {"municipality", "municipio", "município"},
	"uf":           {"uf"},
	"lat":          {"lat", "latitude"},
	"lon":          {"lon", "longitude"},
}

var requiredColumns = []string{"br", "km", "kind", "lat", "lon"}

// readPoints parses a highway points CSV. Comma or semicolon separators
// and decimal commas are accepted. Rows that cannot be parsed are counted
// and skipped.
func readPoints(r io.Reader) ([]domain.HighwayPoint, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	text := strings.TrimPrefix(string(data), "\uFEFF")

	reader := csv.NewReader(strings.NewReader(text))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	if firstLine, _, _ := strings.Cut(text, "\n"); strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		reader.Comma = ';'
	}

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", name)
		}
	}

	var (
		points  []domain.HighwayPoint
		skipped int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		p, err := parseRow(record, cols)
		if err != nil {
			skipped++
			continue
		}
		points = append(points, p)
	}
	return points, skipped, nil
}

func parseRow(record []string, cols map[string]int) (domain.HighwayPoint, error) {
	br := normalizeBR(getField(record, cols, "br"))
	if br == "" {
		return domain.HighwayPoint{}, errors.New("missing br")
	}
	km, err := parseDecimal(getField(record, cols, "km"))
	if err != nil {
		return domain.HighwayPoint{}, fmt.Errorf("km: %w", err)
	}
	lat, err := parseDecimal(getField(record, cols, "lat"))
	if err != nil {
		return domain.HighwayPoint{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := parseDecimal(getField(record, cols, "lon"))
	if err != nil {
		return domain.HighwayPoint{}, fmt.Errorf("lon: %w", err)
	}
	loc := domain.GeoPoint{Lat: lat, Lon: lon}
	if !loc.Valid() || (lat == 0 && lon == 0) {
		return domain.HighwayPoint{}, errors.New("invalid coordinates")
	}
	kind := strings.ToLower(getField(record, cols, "kind"))
	if kind == "" {
		return domain.HighwayPoint{}, errors.New("missing kind")
	}

	return domain.HighwayPoint{
		BR:           br,
		Km:           km,
		Kind:         kind,
		Description:  getField(record, cols, "description"),
		Direction:    getField(record, cols, "direction"),
		Municipality: getField(record, cols, "municipality"),
		UF:           strings.ToUpper(getField(record, cols, "uf")),
		Location:     loc,
	}, nil
}

// normalizeBR reduces "BR-101", "br 101" or "101" to "101".
func normalizeBR(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "BR")
	s = strings.TrimLeft(s, "-/ ")
	if _, err := strconv.Atoi(s); err != nil {
		return ""
	}
	return s
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

func indexColumns(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := byName[a]; ok {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

func getField(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
