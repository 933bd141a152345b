package report

import (
	"testing"

	"example/chessdebrief/app/models"
)

func intPtr(v int) *int { return &v }

func TestFormatProg(t *testing.T) {
	tests := []struct {
		name string
		prog *int
		want ProgIndicator
	}{
		{name: "absent", prog: nil, want: ProgIndicator{Symbol: Placeholder, Direction: DirectionFlat}},
		{name: "zero", prog: intPtr(0), want: ProgIndicator{Symbol: Placeholder, Direction: DirectionFlat}},
		{name: "gain", prog: intPtr(12), want: ProgIndicator{Symbol: "+12", Direction: DirectionUp}},
		{name: "loss", prog: intPtr(-18), want: ProgIndicator{Symbol: "-18", Direction: DirectionDown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatProg(tt.prog); got != tt.want {
				t.Fatalf("FormatProg = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatRating(t *testing.T) {
	if got := FormatRating(nil); got != Placeholder {
		t.Fatalf("FormatRating(nil) = %q", got)
	}
	if got := FormatRating(&models.RatingEntry{}); got != Placeholder {
		t.Fatalf("FormatRating(no rating) = %q", got)
	}
	if got := FormatRating(&models.RatingEntry{Rating: intPtr(1601)}); got != "1601" {
		t.Fatalf("FormatRating = %q, want 1601", got)
	}
}

func TestRatingViews(t *testing.T) {
	ratings := models.RatingsMap{
		models.TimeControlRapid:     {Rating: intPtr(1601), Games: 234, Prog: 5},
		models.TimeControlBullet:    {Rating: intPtr(1342), Games: 203, Prog: -18},
		models.TimeControlClassical: {Rating: nil, Games: 0, Prog: 0},
	}

	views := RatingViews(ratings)
	if len(views) != 3 {
		t.Fatalf("RatingViews len = %d, want 3", len(views))
	}
	order := []models.TimeControl{models.TimeControlBullet, models.TimeControlRapid, models.TimeControlClassical}
	for i, tc := range order {
		if views[i].TimeControl != tc {
			t.Fatalf("RatingViews[%d] = %s, want %s", i, views[i].TimeControl, tc)
		}
	}
	if views[0].Prog.Symbol != "-18" || views[0].Label != "Bullet" {
		t.Fatalf("bullet view = %+v", views[0])
	}
	if views[2].HasRating || views[2].Rating != Placeholder || views[2].Prog.Direction != DirectionFlat {
		t.Fatalf("classical view = %+v", views[2])
	}
}
