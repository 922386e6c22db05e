package main

import "time"

// All bucket math happens in a single fixed zone so every client,
// wherever it runs, lands in the same bucket.
var appZone = time.FixedZone("UTC+8", 8*60*60)

const seedKindError = "Invalid value for seed-type (hourly, daily, weekly, monthly, yearly)."

// bucketStart maps an instant to the start of the time bucket that
// contains it. Two calls inside the same bucket return the same
// instant, so the unix timestamp doubles as a shared RNG seed.
// ok is false for unrecognized kinds.
func bucketStart(kind string, now time.Time) (start time.Time, ok bool) {
	cur := now.In(appZone)
	y, m, d := cur.Date()

	switch kind {
	case "hourly":
		return time.Date(y, m, d, cur.Hour(), 0, 0, 0, appZone), true
	case "daily":
		return time.Date(y, m, d, 0, 0, 0, 0, appZone), true
	case "weekly":
		// Most recent Sunday: isoweekday mod 7 is exactly Go's
		// Weekday numbering (Sunday = 0).
		back := int(cur.Weekday())
		return time.Date(y, m, d-back, 0, 0, 0, 0, appZone), true
	case "monthly":
		return time.Date(y, m, 1, 0, 0, 0, 0, appZone), true
	case "yearly":
		return time.Date(y, time.January, 1, 0, 0, 0, 0, appZone), true
	}
	return time.Time{}, false
}

// windowStart is bucketStart for leaderboard windows; "lifetime"
// means no lower bound.
func windowStart(window string, now time.Time) (int64, bool) {
	if window == "lifetime" {
		return 0, true
	}
	start, ok := bucketStart(window, now)
	if !ok {
		return 0, false
	}
	return start.Unix(), true
}
