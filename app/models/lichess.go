package models

// LichessUser is the subset of GET /api/user/{username} we read.
type LichessUser struct {
	ID       string                 `json:"id"`
	Username string                 `json:"username"`
	Perfs    map[string]LichessPerf `json:"perfs"`
}

// LichessPerf is one time-control entry. Rating is absent when no games were played.
type LichessPerf struct {
	Games  int  `json:"games"`
	Rating *int `json:"rating"`
	Prog   int  `json:"prog"`
	Prov   bool `json:"prov"`
}

// LichessRatingHistory is one series from /api/user/{username}/rating-history.
// Each point is [year, month (0-based), day, rating].
type LichessRatingHistory struct {
	Name   string   `json:"name"`
	Points [][4]int `json:"points"`
}
