package report

import (
	"sort"

	"example/chessdebrief/app/models"
)

// Tier is the visual treatment a weakness card gets.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierTertiary  Tier = "tertiary"
)

// TierForRank maps rank 1..3 to a tier. Unknown ranks fall back to the lowest tier.
func TierForRank(rank int) Tier {
	switch rank {
	case 1:
		return TierPrimary
	case 2:
		return TierSecondary
	default:
		return TierTertiary
	}
}

// RankedWeakness is a weakness together with its derived display tier.
type RankedWeakness struct {
	models.Weakness
	Tier Tier `json:"tier"`
}

// SortWeaknesses returns a copy of ws ordered by ascending rank. Equal ranks
// keep their input order.
func SortWeaknesses(ws []models.Weakness) []models.Weakness {
	out := make([]models.Weakness, len(ws))
	copy(out, ws)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rank < out[j].Rank
	})
	return out
}

// RankWeaknesses sorts ws and attaches a tier to each entry.
func RankWeaknesses(ws []models.Weakness) []RankedWeakness {
	sorted := SortWeaknesses(ws)
	out := make([]RankedWeakness, 0, len(sorted))
	for _, w := range sorted {
		out = append(out, RankedWeakness{Weakness: w, Tier: TierForRank(w.Rank)})
	}
	return out
}
