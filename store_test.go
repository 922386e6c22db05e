package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertNewerWins(t *testing.T) {
	store := newTestStore(t)

	orig := AppDetail{Name: "wordgrid", Version: "1.0", Changelog: "initial", UpdatedOn: "2024-03-01T00:00:00", ReleaseDate: "2024-02-01"}
	require.NoError(t, store.UpsertAppDetail(orig))

	// Older and equal freshness tokens leave the row untouched.
	stale := orig
	stale.Version = "0.9"
	stale.UpdatedOn = "2024-02-15T00:00:00"
	require.NoError(t, store.UpsertAppDetail(stale))

	same := orig
	same.Version = "1.0-rebuilt"
	require.NoError(t, store.UpsertAppDetail(same))

	rows, err := store.AppDetails("wordgrid")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, orig, rows[0])

	// Strictly newer replaces every field.
	newer := AppDetail{Name: "wordgrid", Version: "1.1", Changelog: "fixes", UpdatedOn: "2024-03-10T00:00:00", ReleaseDate: "2024-03-09"}
	require.NoError(t, store.UpsertAppDetail(newer))

	rows, err = store.AppDetails("wordgrid")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, newer, rows[0])
}

func TestUpsertIdempotent(t *testing.T) {
	store := newTestStore(t)
	d := AppDetail{Name: "pixeldash", Version: "2.0", UpdatedOn: "2024-03-01T00:00:00"}

	for i := 0; i < 3; i++ {
		require.NoError(t, store.UpsertAppDetail(d))
	}
	rows, err := store.AppDetails("")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestAppDetailsFilter(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpsertAppDetail(AppDetail{Name: "alpha", UpdatedOn: "1"}))
	require.NoError(t, store.UpsertAppDetail(AppDetail{Name: "beta", UpdatedOn: "1"}))

	all, err := store.AppDetails("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := store.AppDetails("beta")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "beta", one[0].Name)

	none, err := store.AppDetails("gamma")
	require.NoError(t, err)
	assert.Empty(t, none)

	exists, err := store.AppExists("alpha")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = store.AppExists("gamma")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVisitCounters(t *testing.T) {
	store := newTestStore(t)

	count, err := store.VisitCount("wordgrid", 2024, 3)
	require.NoError(t, err)
	assert.Zero(t, count, "absent counter reads 0")

	require.NoError(t, store.RecordVisit("wordgrid", 2024, 3))
	require.NoError(t, store.RecordVisit("wordgrid", 2024, 3))
	count, err = store.VisitCount("wordgrid", 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Next month starts its own counter at 1.
	require.NoError(t, store.RecordVisit("wordgrid", 2024, 4))
	count, err = store.VisitCount("wordgrid", 2024, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.VisitCount("wordgrid", 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "previous month untouched")
}

func TestVisitorIDCanonicalization(t *testing.T) {
	assert.Equal(t, "app.2024.03", visitorID("app", 2024, 3))
	assert.Equal(t, visitorID("app", 2024, 3), visitorID("app", 2024, 03))
}

func TestTopScores(t *testing.T) {
	store := newTestStore(t)

	sigA := deriveSignature("alice", "pw")
	sigB := deriveSignature("bob", "pw")
	entries := []ScoreEntry{
		{App: "wordgrid", User: "alice", Score: 50, Date: 100, Signature: sigA},
		{App: "wordgrid", User: "alice", Score: 90, Date: 300, Signature: sigA},
		{App: "wordgrid", User: "alice", Score: 90, Date: 200, Signature: sigA}, // tie, earlier
		{App: "wordgrid", User: "bob", Score: 70, Date: 150, Signature: sigB},
		{App: "wordgrid", User: "bob", Score: 20, Date: 400, Signature: sigB},
		{App: "other", User: "alice", Score: 999, Date: 100, Signature: sigA},
	}
	for _, e := range entries {
		require.NoError(t, store.InsertScore(e))
	}

	// Descending: one row per signature, max score, earliest tie date.
	top, err := store.TopScores("wordgrid", 0, 10, true)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, ScoreEntry{App: "wordgrid", User: "alice", Score: 90, Date: 200, Signature: sigA}, top[0])
	assert.Equal(t, ScoreEntry{App: "wordgrid", User: "bob", Score: 70, Date: 150, Signature: sigB}, top[1])

	// Ascending: minimum per signature.
	bottom, err := store.TopScores("wordgrid", 0, 10, false)
	require.NoError(t, err)
	require.Len(t, bottom, 2)
	assert.Equal(t, float64(20), bottom[0].Score)
	assert.Equal(t, "bob", bottom[0].User)
	assert.Equal(t, float64(50), bottom[1].Score)

	// Window cuts off older entries.
	windowed, err := store.TopScores("wordgrid", 250, 10, true)
	require.NoError(t, err)
	require.Len(t, windowed, 2)
	assert.Equal(t, float64(90), windowed[0].Score)
	assert.Equal(t, int64(300), windowed[0].Date)
	assert.Equal(t, float64(20), windowed[1].Score)

	// Limit caps the result length.
	limited, err := store.TopScores("wordgrid", 0, 1, true)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// Unknown app yields an empty list.
	empty, err := store.TopScores("missing", 0, 10, true)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSystemMeta(t *testing.T) {
	store := newTestStore(t)

	val, err := store.MetaGet("nope")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, store.MetaSet("k", "v1"))
	require.NoError(t, store.MetaSet("k", "v2"))
	val, err = store.MetaGet("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", val)
}
