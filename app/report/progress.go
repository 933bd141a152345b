package report

import (
	"strconv"

	"example/chessdebrief/app/models"
)

// Placeholder is rendered wherever a value is absent.
const Placeholder = "—"

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

type ProgIndicator struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
}

// FormatProg turns a rating delta into a signed symbol and direction.
func FormatProg(prog *int) ProgIndicator {
	if prog == nil || *prog == 0 {
		return ProgIndicator{Symbol: Placeholder, Direction: DirectionFlat}
	}
	if *prog > 0 {
		return ProgIndicator{Symbol: "+" + strconv.Itoa(*prog), Direction: DirectionUp}
	}
	return ProgIndicator{Symbol: strconv.Itoa(*prog), Direction: DirectionDown}
}

// FormatRating renders the rating of entry, or the placeholder when there is none.
func FormatRating(entry *models.RatingEntry) string {
	if entry == nil || entry.Rating == nil {
		return Placeholder
	}
	return strconv.Itoa(*entry.Rating)
}

// RatingView is one time-control tile of the ratings card.
type RatingView struct {
	TimeControl models.TimeControl `json:"time_control"`
	Label       string             `json:"label"`
	Rating      string             `json:"rating"`
	HasRating   bool               `json:"has_rating"`
	Games       int                `json:"games"`
	Prog        ProgIndicator      `json:"prog"`
}

// RatingViews renders ratings in display order, skipping categories that are absent.
func RatingViews(ratings models.RatingsMap) []RatingView {
	out := make([]RatingView, 0, len(ratings))
	for _, tc := range models.TimeControls {
		entry, ok := ratings[tc]
		if !ok {
			continue
		}
		prog := entry.Prog
		out = append(out, RatingView{
			TimeControl: tc,
			Label:       tc.Label(),
			Rating:      FormatRating(&entry),
			HasRating:   entry.Rating != nil,
			Games:       max(entry.Games, 0),
			Prog:        FormatProg(&prog),
		})
	}
	return out
}
