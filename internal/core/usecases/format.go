package usecases

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// FormatLocationInfo renders info as the shareable multi-line text attached
// to captures. Missing parts are left out.
func FormatLocationInfo(info *domain.LocationInfo) string {
	if info == nil {
		return ""
	}

	var b strings.Builder

	if info.Address != nil {
		if addr := firstNonEmpty(info.Address.Formatted, info.Address.FullAddress); addr != "" {
			fmt.Fprintf(&b, "📌 Endereço: %s\n", addr)
		}
	}

	if h := info.Highway; h != nil && h.Ref != "" {
		b.WriteString("🛣️ Rodovia: " + h.Ref)
		if h.Name != "" {
			fmt.Fprintf(&b, " (%s)", h.Name)
		}
		if est := h.Estimate; est != nil {
			km := strconv.FormatFloat(est.Km, 'f', -1, 64)
			if est.Estimated {
				fmt.Fprintf(&b, " - ~KM %s (estimado)", km)
			} else {
				fmt.Fprintf(&b, " - KM %s", km)
				if est.Distance > 50 {
					fmt.Fprintf(&b, " (~%.0fm do marco)", est.Distance)
				}
			}
		}
		b.WriteString("\n")
	}

	if len(info.Landmarks) > 0 {
		b.WriteString("🏪 Referências:\n")
		for _, lm := range info.Landmarks {
			fmt.Fprintf(&b, "  %s %s (%.0fm)\n", lm.Icon, lm.Name, lm.Distance)
		}
	}

	return b.String()
}
