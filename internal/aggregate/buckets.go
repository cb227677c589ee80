package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// Bucket is a time granularity.
type Bucket string

// Supported buckets.
const (
	BucketDay  Bucket = "day"
	BucketHour Bucket = "hour"
)

// ParseBucket validates a bucket name.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case BucketDay, BucketHour:
		return Bucket(s), nil
	default:
		return "", fmt.Errorf("unknown time bucket %q", s)
	}
}

// Key formats t for the bucket in loc.
func (b Bucket) Key(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	if b == BucketHour {
		return t.Format("2006-01-02 15:00")
	}
	return t.Format(model.DateLayout)
}

// ByBucket counts items per time bucket, ordered chronologically.
func ByBucket(items []model.ScoredItem, bucket Bucket, loc *time.Location) []Count {
	counts := CountBy(items, func(s model.ScoredItem) []string {
		return []string{bucket.Key(s.Item.Timestamp, loc)}
	})
	series := make([]Count, 0, len(counts))
	for k, c := range counts {
		series = append(series, Count{Key: k, Count: c})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Key < series[j].Key })
	return series
}

// ByHourOfDay counts items per hour of day ("00" to "23") in loc.
func ByHourOfDay(items []model.ScoredItem, loc *time.Location) map[string]int {
	if loc == nil {
		loc = time.UTC
	}
	return CountBy(items, func(s model.ScoredItem) []string {
		return []string{s.Item.Timestamp.In(loc).Format("15")}
	})
}

// Window keeps items with since <= timestamp < until. A zero bound is open.
func Window(items []model.ScoredItem, since, until time.Time) []model.ScoredItem {
	var out []model.ScoredItem
	for _, s := range items {
		ts := s.Item.Timestamp
		if !since.IsZero() && ts.Before(since) {
			continue
		}
		if !until.IsZero() && !ts.Before(until) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// DayStart returns midnight of t's day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
