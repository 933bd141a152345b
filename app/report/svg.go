package report

import (
	"fmt"
	"strings"
)

// RenderSVG draws chart as a standalone SVG document matching the dashboard's
// trend card: dashed guides, a filled area, the rating line, first/last dots,
// the latest rating and three date labels.
func RenderSVG(chart TrendChart) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" preserveAspectRatio="none" aria-label="Rating trend chart">`, chart.Width, chart.Height)
	b.WriteString(`<defs><linearGradient id="chartFill" x1="0" y1="0" x2="0" y2="1">`)
	b.WriteString(`<stop offset="0%" stop-color="#10B981" stop-opacity="0.18"/>`)
	b.WriteString(`<stop offset="100%" stop-color="#10B981" stop-opacity="0.01"/>`)
	b.WriteString(`</linearGradient></defs>`)

	for _, g := range chart.Guides {
		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#3d3d47" stroke-width="1" stroke-dasharray="4 4"/>`,
			num(chart.PadX), num(g.Y), num(float64(chart.Width)-chart.PadX), num(g.Y))
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="end" font-size="9" fill="#6b6b7a">%d</text>`,
			num(chart.PadX-4), num(g.Y+4), g.Rating)
	}

	fmt.Fprintf(&b, `<path d="%s" fill="url(#chartFill)"/>`, chart.AreaPath)
	fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="#10B981" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"/>`, chart.Polyline)

	if n := len(chart.Points); n > 0 {
		for _, p := range []ChartPoint{chart.Points[0], chart.Points[n-1]} {
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="3.5" fill="#10B981" stroke="#0a0a0b" stroke-width="2"/>`, num(p.X), num(p.Y))
		}
		last := chart.Points[n-1]
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="end" font-size="10" font-weight="700" fill="#34D399">%d</text>`,
			num(last.X-6), num(last.Y-8), last.Rating)
	}

	for _, l := range chart.Labels {
		fmt.Fprintf(&b, `<text x="%s" y="%d" text-anchor="%s" font-size="9" fill="#6b6b7a">%s</text>`,
			num(l.X), chart.Height-2, l.Anchor, l.Text)
	}

	b.WriteString(`</svg>`)
	return b.String()
}
