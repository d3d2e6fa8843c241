package usecases_test

import (
	"testing"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/usecases"
)

func TestFormatLocationInfo(t *testing.T) {
	info := &domain.LocationInfo{
		Address: &domain.Address{Formatted: "Rua A, 10, Centro, Palhoça/SC"},
		Highway: &domain.HighwayInfo{
			Ref:      "BR-101",
			Name:     "Rodovia Governador Mário Covas",
			Estimate: &domain.KmEstimate{Km: 215.4, Estimated: true, Method: domain.KmInterpolation},
		},
		Landmarks: []domain.Landmark{
			{Name: "Ponte do Rio Cubatão", Icon: "🌉", Distance: 35},
		},
	}

	want := "📌 Endereço: Rua A, 10, Centro, Palhoça/SC\n" +
		"🛣️ Rodovia: BR-101 (Rodovia Governador Mário Covas) - ~KM 215.4 (estimado)\n" +
		"🏪 Referências:\n" +
		"  🌉 Ponte do Rio Cubatão (35m)\n"

	if got := usecases.FormatLocationInfo(info); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatLocationInfo_ExactMilestone(t *testing.T) {
	info := &domain.LocationInfo{
		Highway: &domain.HighwayInfo{
			Ref:      "BR-282",
			Estimate: &domain.KmEstimate{Km: 3, Method: domain.KmExact, Distance: 120},
		},
	}

	want := "🛣️ Rodovia: BR-282 - KM 3 (~120m do marco)\n"
	if got := usecases.FormatLocationInfo(info); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatLocationInfo_Empty(t *testing.T) {
	if got := usecases.FormatLocationInfo(&domain.LocationInfo{}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := usecases.FormatLocationInfo(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
