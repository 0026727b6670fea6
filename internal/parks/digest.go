package parks

import "strings"

// RenderDigest renders a report as the plain-text park and trail listing
// handed to the recommendation model.
func RenderDigest(r *Report) string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	for _, pt := range r.Parks {
		b.WriteString("\nPark: ")
		b.WriteString(pt.Park.Name)
		b.WriteString("\n")

		if len(pt.Trails) == 0 {
			b.WriteString("  - No specific trails listed.\n")
			continue
		}
		for _, t := range pt.Trails {
			b.WriteString("  - Trail: ")
			b.WriteString(t.Title)
			b.WriteString("\n")
		}
	}
	return b.String()
}
