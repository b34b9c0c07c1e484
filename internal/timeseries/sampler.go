// Package timeseries reconstructs regularly-sampled cumulative metric series
// from raw, unordered repository events.
package timeseries

import (
	"sort"
	"time"

	"github.com/naka-gawa/repo-compare/internal/domain"
)

const (
	// sampleIntervalDays is the fixed cadence between sample points.
	// Samples step by calendar days, not hours, so DST shifts cannot
	// drift the sample dates.
	sampleIntervalDays = 7

	// lookbackDays bounds the historical window to one year.
	lookbackDays = 365

	// MaxCommits caps how many commits the contributor sampler consumes.
	MaxCommits = 200
)

// PREvent is a pull request open/close event pair. ClosedAt is nil while the
// pull request is still open.
type PREvent struct {
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Commit is a single commit attributed to an author. Author may be empty when
// the hosting provider has no account for the committer.
type Commit struct {
	Author string
	Date   time.Time
}

// truncateDay strips the time-of-day and timezone components so that samples
// compare on whole calendar days only.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// window derives the sampling window ending today. The start defaults to one
// year back and narrows to the oldest known event when that is more recent.
func window(oldest *time.Time, now time.Time) (start, end time.Time) {
	end = truncateDay(now)
	start = end.AddDate(0, 0, -lookbackDays)
	if oldest != nil {
		if day := truncateDay(*oldest); day.After(start) {
			start = day
		}
	}
	return start, end
}

// OpenPullRequests samples the net count of open pull requests at weekly
// intervals: at each sample date the value is the number of pull requests
// created on or before that date minus those of them already closed, clamped
// at zero. An empty event list yields an empty map.
func OpenPullRequests(events []PREvent, oldest *time.Time, now time.Time) map[string]int {
	result := make(map[string]int)
	if len(events) == 0 {
		return result
	}

	sorted := make([]PREvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	start, end := window(oldest, now)
	opened := 0
	for sample := start; !sample.After(end); sample = sample.AddDate(0, 0, sampleIntervalDays) {
		for opened < len(sorted) && !truncateDay(sorted[opened].CreatedAt).After(sample) {
			opened++
		}
		closed := 0
		for _, ev := range sorted[:opened] {
			if ev.ClosedAt != nil && !truncateDay(*ev.ClosedAt).After(sample) {
				closed++
			}
		}
		value := opened - closed
		if value < 0 {
			value = 0
		}
		result[sample.Format(domain.DateLayout)] = value
	}
	return result
}

// ClosedPullRequests samples the cumulative count of closed pull requests at
// weekly intervals. Events without a closure date are ignored; no closures at
// all yields an empty map.
func ClosedPullRequests(events []PREvent, oldest *time.Time, now time.Time) map[string]int {
	result := make(map[string]int)

	closures := make([]time.Time, 0, len(events))
	for _, ev := range events {
		if ev.ClosedAt != nil {
			closures = append(closures, truncateDay(*ev.ClosedAt))
		}
	}
	if len(closures) == 0 {
		return result
	}
	sort.Slice(closures, func(i, j int) bool { return closures[i].Before(closures[j]) })

	start, end := window(oldest, now)
	closed := 0
	for sample := start; !sample.After(end); sample = sample.AddDate(0, 0, sampleIntervalDays) {
		for closed < len(closures) && !closures[closed].After(sample) {
			closed++
		}
		result[sample.Format(domain.DateLayout)] = closed
	}
	return result
}

// Contributors samples the cumulative count of distinct authors at weekly
// intervals, counting each author from their earliest commit inside the
// window. At most MaxCommits commits are consumed and commits without an
// author are skipped. No qualifying commits yields an empty map.
func Contributors(commits []Commit, now time.Time) map[string]int {
	result := make(map[string]int)
	if len(commits) == 0 {
		return result
	}
	if len(commits) > MaxCommits {
		commits = commits[:MaxCommits]
	}

	start, end := window(nil, now)
	firstSeen := make(map[string]time.Time)
	for _, c := range commits {
		if c.Author == "" {
			continue
		}
		day := truncateDay(c.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		if prev, ok := firstSeen[c.Author]; !ok || day.Before(prev) {
			firstSeen[c.Author] = day
		}
	}
	if len(firstSeen) == 0 {
		return result
	}

	firsts := make([]time.Time, 0, len(firstSeen))
	for _, day := range firstSeen {
		firsts = append(firsts, day)
	}
	sort.Slice(firsts, func(i, j int) bool { return firsts[i].Before(firsts[j]) })

	seen := 0
	for sample := start; !sample.After(end); sample = sample.AddDate(0, 0, sampleIntervalDays) {
		for seen < len(firsts) && !firsts[seen].After(sample) {
			seen++
		}
		result[sample.Format(domain.DateLayout)] = seen
	}
	return result
}
