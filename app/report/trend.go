package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"example/chessdebrief/app/models"
)

const (
	DefaultChartWidth  = 600
	DefaultChartHeight = 160

	chartPadX     = 12
	chartPadY     = 16
	ratingPadding = 20
)

type ChartPoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Date   string  `json:"date"`
	Rating int     `json:"rating"`
}

// Guide is a dashed horizontal line at a rating value.
type Guide struct {
	Rating int     `json:"rating"`
	Y      float64 `json:"y"`
}

type AxisLabel struct {
	Index  int     `json:"index"`
	X      float64 `json:"x"`
	Text   string  `json:"text"`
	Anchor string  `json:"anchor"` // start, middle or end
}

// TrendChart is the plotting geometry for a rating series on a fixed canvas.
type TrendChart struct {
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	PadX      float64      `json:"pad_x"`
	PadY      float64      `json:"pad_y"`
	MinRating int          `json:"min_rating"`
	MaxRating int          `json:"max_rating"`
	Points    []ChartPoint `json:"points"`
	Polyline  string       `json:"polyline"`
	AreaPath  string       `json:"area_path"`
	Gain      int          `json:"gain"`
	GainBadge string       `json:"gain_badge"`
	Guides    []Guide      `json:"guides"`
	Labels    []AxisLabel  `json:"labels"`
}

// MapTrend maps a chronological rating series into canvas coordinates. It
// returns false when there are fewer than two points, in which case nothing
// should be drawn. Non-positive sizes fall back to the default canvas.
func MapTrend(data []models.TrendPoint, width, height int) (TrendChart, bool) {
	if len(data) < 2 {
		return TrendChart{}, false
	}
	if width <= 0 {
		width = DefaultChartWidth
	}
	if height <= 0 {
		height = DefaultChartHeight
	}

	innerW := float64(width) - 2*chartPadX
	innerH := float64(height) - 2*chartPadY

	lo, hi := data[0].Rating, data[0].Rating
	for _, p := range data[1:] {
		lo = min(lo, p.Rating)
		hi = max(hi, p.Rating)
	}
	minR := lo - ratingPadding
	maxR := hi + ratingPadding
	rangeR := float64(maxR - minR)

	last := len(data) - 1
	toX := func(i int) float64 {
		return chartPadX + float64(i)/float64(last)*innerW
	}
	toY := func(r float64) float64 {
		return chartPadY + innerH - (r-float64(minR))/rangeR*innerH
	}

	chart := TrendChart{
		Width:     width,
		Height:    height,
		PadX:      chartPadX,
		PadY:      chartPadY,
		MinRating: minR,
		MaxRating: maxR,
		Points:    make([]ChartPoint, len(data)),
	}

	poly := make([]string, len(data))
	area := []string{fmt.Sprintf("M %s %s", num(toX(0)), num(toY(float64(data[0].Rating))))}
	for i, p := range data {
		x, y := toX(i), toY(float64(p.Rating))
		chart.Points[i] = ChartPoint{X: x, Y: y, Date: p.Date, Rating: p.Rating}
		poly[i] = num(x) + "," + num(y)
		area = append(area, fmt.Sprintf("L %s %s", num(x), num(y)))
	}
	area = append(area,
		fmt.Sprintf("L %s %d", num(toX(last)), height),
		fmt.Sprintf("L %s %d", num(toX(0)), height),
		"Z",
	)
	chart.Polyline = strings.Join(poly, " ")
	chart.AreaPath = strings.Join(area, " ")

	for _, frac := range []float64{0.25, 0.5, 0.75} {
		r := roundHalfUp(float64(minR) + rangeR*frac)
		chart.Guides = append(chart.Guides, Guide{Rating: r, Y: toY(float64(r))})
	}

	chart.Gain = data[last].Rating - data[0].Rating
	chart.GainBadge = FormatGain(chart.Gain)

	seen := map[int]bool{}
	for _, i := range []int{0, len(data) / 2, last} {
		if seen[i] {
			continue
		}
		seen[i] = true
		anchor := "middle"
		switch i {
		case 0:
			anchor = "start"
		case last:
			anchor = "end"
		}
		chart.Labels = append(chart.Labels, AxisLabel{
			Index:  i,
			X:      toX(i),
			Text:   formatChartDate(data[i].Date),
			Anchor: anchor,
		})
	}

	return chart, true
}

// FormatGain renders a signed point delta for the gain badge, e.g. "+113 pts".
func FormatGain(gain int) string {
	if gain >= 0 {
		return fmt.Sprintf("+%d pts", gain)
	}
	return fmt.Sprintf("%d pts", gain)
}

func formatChartDate(iso string) string {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return iso
	}
	return t.Format("Jan 2")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
