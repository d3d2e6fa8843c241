package natsadapter

import "testing"

func TestDoneSubject(t *testing.T) {
	tests := []struct {
		geohash string
		want    string
	}{
		{"6gkzwgj", "geofotos.enrich.done.6gkz"},
		{"6gk", "geofotos.enrich.done.6gk"},
		{"", "geofotos.enrich.done._"},
	}
	for _, tt := range tests {
		if got := DoneSubject(tt.geohash); got != tt.want {
			t.Errorf("DoneSubject(%q) = %q, want %q", tt.geohash, got, tt.want)
		}
	}
}
