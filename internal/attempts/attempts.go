// Package attempts implements the adaptive search backoff that widens the
// retry interval for languages whose recent searches keep coming up empty.
package attempts

import (
	"sort"
	"time"
)

// Record is one search attempt for a language key.
type Record struct {
	Key string    `json:"key"`
	At  time.Time `json:"at"`
}

// Policy configures the adaptive backoff windows. All decisions take "now"
// as an explicit parameter so they stay deterministic under test.
type Policy struct {
	Enabled bool
	// InitialDelay is the dense-retry window measured from the first
	// attempt; inside it every sweep is allowed to search again.
	InitialDelay time.Duration
	// RetryInterval is the periodic window measured from the latest
	// attempt once the dense window has passed.
	RetryInterval time.Duration
}

// DefaultPolicy returns the default adaptive search windows.
func DefaultPolicy() Policy {
	return Policy{
		Enabled:       true,
		InitialDelay:  21 * 24 * time.Hour,
		RetryInterval: 7 * 24 * time.Hour,
	}
}

// IsActive reports whether a search for key should run at time now.
// With the policy disabled every search is active. Otherwise a language is
// active when it has never been attempted, while the dense-retry window
// after the first attempt is still open, or once the periodic retry
// interval since the latest attempt has elapsed.
func IsActive(records []Record, key string, policy Policy, now time.Time) bool {
	if !policy.Enabled {
		return true
	}

	var initial, latest time.Time
	found := false
	for _, r := range records {
		if r.Key != key {
			continue
		}
		if !found || r.At.Before(initial) {
			initial = r.At
		}
		if !found || r.At.After(latest) {
			latest = r.At
		}
		found = true
	}
	if !found {
		return true
	}

	if now.Before(initial.Add(policy.InitialDelay)) {
		return true
	}
	return !now.Before(latest.Add(policy.RetryInterval))
}

// RecordAttempt appends an attempt for key at time now and compacts the
// history so each language keeps at most its earliest pre-existing attempt
// plus the new one. The result is ordered by language key, then time, for
// deterministic persistence.
func RecordAttempt(records []Record, key string, now time.Time) []Record {
	byKey := make(map[string][]Record)
	for _, r := range records {
		byKey[r.Key] = append(byKey[r.Key], r)
	}
	byKey[key] = append(byKey[key], Record{Key: key, At: now})

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Record, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, compact(byKey[k])...)
	}
	return out
}

// compact reduces one language's records to (earliest, latest).
func compact(records []Record) []Record {
	if len(records) <= 2 {
		sort.Slice(records, func(i, j int) bool { return records[i].At.Before(records[j].At) })
		return records
	}
	earliest, latest := records[0], records[0]
	for _, r := range records[1:] {
		if r.At.Before(earliest.At) {
			earliest = r
		}
		if r.At.After(latest.At) {
			latest = r
		}
	}
	return []Record{earliest, latest}
}
