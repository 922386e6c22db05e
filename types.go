package main

// --- Domain Models ---

// AppDetail mirrors one row of the remote source-of-truth app table.
// UpdatedOn is the freshness token for the newer-wins upsert.
type AppDetail struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Changelog   string `json:"changelog"`
	UpdatedOn   string `json:"updated_on"`
	ReleaseDate string `json:"release_date"`
}

// ScoreEntry is one submitted score. Append-only; leaderboard queries
// group rows by Signature and keep the extreme score per group.
type ScoreEntry struct {
	App       string  `json:"app"`
	User      string  `json:"user"`
	Score     float64 `json:"score"`
	Date      int64   `json:"date"` // unix seconds
	Signature string  `json:"signature"`
}

// --- API Responses ---

type seedResponse struct {
	Status    int    `json:"status"`
	Seed      int64  `json:"seed"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

type timeResponse struct {
	Status    int    `json:"status"`
	Datetime  string `json:"datetime"`
	Timestamp int64  `json:"timestamp"`
}

type appsResponse struct {
	Status int         `json:"status"`
	Data   []AppDetail `json:"data"`
}

type countResponse struct {
	Status int `json:"status"`
	Count  int `json:"count"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type scoresResponse struct {
	Status int             `json:"status"`
	Scores [][]interface{} `json:"scores"`
}

type authResponse struct {
	User      string `json:"user"`
	Signature string `json:"signature"`
}
