package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

const landingPage = `<!DOCTYPE html>
<html><head><title>playbase</title></head>
<body><h1>playbase</h1><p>REST API for seeds, server time, app metadata, trackers and leaderboards.</p></body>
</html>`

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(landingPage))
}

// handleSeed returns the shared RNG seed for the requested bucket.
// Unknown kinds keep HTTP 200 and signal failure in-body with the
// -1 sentinel, matching what shipped clients already parse.
func (a *App) handleSeed(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	if kind == "" {
		kind = "daily"
	}

	res := seedResponse{Status: 200, Seed: -1}
	if start, ok := bucketStart(kind, a.now()); ok {
		res.Seed = start.Unix()
		res.Timestamp = start.Format(time.RFC3339)
	} else {
		res.Error = seedKindError
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleTime(w http.ResponseWriter, r *http.Request) {
	cur := a.now().In(appZone)
	writeJSON(w, http.StatusOK, timeResponse{
		Status:    200,
		Datetime:  cur.Format(time.RFC3339),
		Timestamp: cur.Unix(),
	})
}

// handleApps serves the cached app metadata, optionally filtered to
// one app. Unknown names come back as an empty data set.
func (a *App) handleApps(w http.ResponseWriter, r *http.Request) {
	details, err := a.store.AppDetails(mux.Vars(r)["name"])
	if err != nil {
		ErrorLog.Printf("apps query: %v", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "Internal error."})
		return
	}
	writeJSON(w, http.StatusOK, appsResponse{Status: 200, Data: details})
}

func (a *App) handleTrackerGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, yerr := strconv.Atoi(vars["year"])
	month, merr := strconv.Atoi(vars["month"])

	// Malformed params degrade to count 0 rather than erroring.
	count := 0
	if vars["app"] != "" && yerr == nil && merr == nil {
		var err error
		count, err = a.store.VisitCount(vars["app"], year, month)
		if err != nil {
			ErrorLog.Printf("visit count: %v", err)
			count = 0
		}
	}
	writeJSON(w, http.StatusOK, countResponse{Status: 200, Count: count})
}

// handleTrackerPost bumps the current month's counter, but only for
// apps that exist in the metadata mirror. Unregistered apps are a
// no-op so junk traffic can't mint counter rows.
func (a *App) handleTrackerPost(w http.ResponseWriter, r *http.Request) {
	app := mux.Vars(r)["app"]

	exists, err := a.store.AppExists(app)
	if err != nil {
		ErrorLog.Printf("app lookup: %v", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "Internal error."})
		return
	}
	if app == "" || !exists {
		writeJSON(w, http.StatusOK, statusResponse{Status: "Invalid parameter."})
		return
	}

	cur := a.now().In(appZone)
	if err := a.store.RecordVisit(app, cur.Year(), int(cur.Month())); err != nil {
		ErrorLog.Printf("record visit: %v", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "Internal error."})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "OK"})
}

// handleScoresGet returns the leaderboard: per distinct signature the
// extreme score inside the window, best first.
func (a *App) handleScoresGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	window := vars["window"]
	if window == "" {
		window = "lifetime"
	}
	since, ok := windowStart(window, a.now())
	if !ok {
		since = 0 // unknown window degrades to lifetime
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	descending := r.URL.Query().Get("order") != "asc"

	entries, err := a.store.TopScores(vars["app"], since, limit, descending)
	if err != nil {
		ErrorLog.Printf("scores query: %v", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "Internal error."})
		return
	}

	scores := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		scores = append(scores, []interface{}{
			e.User, e.Score, time.Unix(e.Date, 0).In(appZone).Format(time.RFC3339), e.Signature,
		})
	}
	writeJSON(w, http.StatusOK, scoresResponse{Status: 200, Scores: scores})
}

// handleScoresPost appends one score entry under the credential-
// derived signature. Anyone can claim any name; the signature is what
// keeps leaderboard rows from colliding.
func (a *App) handleScoresPost(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := credentials(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, statusResponse{Status: "Invalid request."})
		return
	}

	var body struct {
		Score *float64 `json:"score"`
	}
	app := mux.Vars(r)["app"]
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Score == nil || app == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "Invalid request."})
		return
	}

	entry := ScoreEntry{
		App:       app,
		User:      user,
		Score:     *body.Score,
		Date:      a.now().Unix(),
		Signature: deriveSignature(user, pass),
	}
	if err := a.store.InsertScore(entry); err != nil {
		ErrorLog.Printf("insert score: %v", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "Internal error."})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "OK"})
}

func (a *App) handleAuth(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := credentials(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, statusResponse{Status: "Unauthorized."})
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, Signature: deriveSignature(user, pass)})
}

// handleBackup streams the raw database file to callers presenting
// the right passkey. The stored secret is the SHA-256 of the passkey,
// so a leaked config never leaks the passkey itself.
func (a *App) handleBackup(w http.ResponseWriter, r *http.Request) {
	passkey := r.Header.Get("passkey")
	if passkey == "" || hashSHA256([]byte(passkey)) != strings.ToLower(a.cfg.BackupKeyHash) {
		writeJSON(w, http.StatusUnauthorized, statusResponse{Status: "Unauthorized."})
		return
	}

	data, err := os.ReadFile(a.store.path)
	if err != nil {
		ErrorLog.Printf("read backup: %v", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "Internal error."})
		return
	}

	w.Header().Set("X-Backup-Checksum", hashBLAKE3(data))
	if r.URL.Query().Get("compress") == "lz4" {
		w.Header().Set("Content-Type", "application/x-lz4")
		w.Write(compressLZ4(data))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}
