package tasks

import (
	"context"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

// bucketGranularity names one of the five retention tiers, in the order
// they're evaluated.
type bucketGranularity struct {
	name string
	keep func(RetentionPolicy) int
	key  func(time.Time) string
}

var bucketGranularities = []bucketGranularity{
	{"hourly", func(p RetentionPolicy) int { return p.KeepHourly }, func(t time.Time) string { return t.Format("2006-01-02T15") }},
	{"daily", func(p RetentionPolicy) int { return p.KeepDaily }, func(t time.Time) string { return t.Format("2006-01-02") }},
	{"weekly", func(p RetentionPolicy) int { return p.KeepWeekly }, func(t time.Time) string { y, w := t.ISOWeek(); return weekKey(y, w) }},
	{"monthly", func(p RetentionPolicy) int { return p.KeepMonthly }, func(t time.Time) string { return t.Format("2006-01") }},
	{"yearly", func(p RetentionPolicy) int { return p.KeepYearly }, func(t time.Time) string { return t.Format("2006") }},
}

func weekKey(year, week int) string {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006") + "-W" + itoa2(week)
}

// itoa2 renders n as a zero-padded two-digit string; week numbers only
// ever run 1-53.
func itoa2(n int) string {
	digits := [2]byte{byte('0' + (n/10)%10), byte('0' + n%10)}
	return string(digits[:])
}

// runRetention implements RetentionCleanup: group surviving snapshots into hourly/daily/weekly/monthly/yearly buckets, keep the
// newest representative of the most recent keep_* buckets at each
// granularity, then apply max_age_days as an additional deletion condition
// on top of bucket protection. Held and manually-created snapshots are
// never deleted, regardless of age.
func runRetention(ctx context.Context, deps *Deps, job *scheduler.Job) (map[string]any, error) {
	if deps.Snapshots == nil {
		return nil, horcruxerr.InternalErr("retention job %q: no snapshot service configured", job.ID)
	}

	policy := RetentionPolicy{
		KeepHourly:  job.ParamInt("keep_hourly", 0),
		KeepDaily:   job.ParamInt("keep_daily", 0),
		KeepWeekly:  job.ParamInt("keep_weekly", 0),
		KeepMonthly: job.ParamInt("keep_monthly", 0),
		KeepYearly:  job.ParamInt("keep_yearly", 0),
		MaxAgeDays:  job.ParamInt("max_age_days", 0),
	}

	snapshots, err := deps.Snapshots.ListSnapshots(ctx, job.Target)
	if err != nil {
		return nil, horcruxerr.InternalErr("list snapshots for %s: %v", job.Target, err)
	}

	protected := computeProtected(snapshots, policy)
	now := time.Now().UTC()

	var deleted, errs int
	for _, snap := range snapshots {
		if snap.Held || snap.Manual {
			continue
		}
		del := !protected[snap.Name]
		if policy.MaxAgeDays > 0 {
			if t, perr := time.Parse(time.RFC3339, snap.CreatedAt); perr == nil {
				if now.Sub(t) > time.Duration(policy.MaxAgeDays)*24*time.Hour {
					del = true
				}
			}
		}
		if !del {
			continue
		}
		if err := deps.Snapshots.DeleteSnapshot(ctx, snap.Dataset, snap.Name); err != nil {
			errs++
			continue
		}
		deleted++
	}

	return map[string]any{
		"deleted": deleted,
		"errors":  errs,
	}, nil
}

// computeProtected returns the set of snapshot names that survive under
// bucket-based retention: for each granularity with a non-zero keep_*,
// every bucket's newest snapshot is a candidate representative, and the
// keep_* most recent representatives are protected.
func computeProtected(snapshots []SnapshotInfo, policy RetentionPolicy) map[string]bool {
	protected := make(map[string]bool)

	for _, g := range bucketGranularities {
		n := g.keep(policy)
		if n <= 0 {
			continue
		}

		newestInBucket := make(map[string]SnapshotInfo)
		for _, snap := range snapshots {
			t, err := time.Parse(time.RFC3339, snap.CreatedAt)
			if err != nil {
				continue
			}
			key := g.key(t)
			if existing, ok := newestInBucket[key]; !ok || t.After(mustParse(existing.CreatedAt)) {
				newestInBucket[key] = snap
			}
		}

		reps := make([]SnapshotInfo, 0, len(newestInBucket))
		for _, snap := range newestInBucket {
			reps = append(reps, snap)
		}
		sortByCreatedDesc(reps)

		for i := 0; i < n && i < len(reps); i++ {
			protected[reps[i].Name] = true
		}
	}

	return protected
}

func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// sortByCreatedDesc is an in-place insertion sort: bucket representative
// lists are small (one per granularity per time window), so pulling in
// sort.Slice for them would be overkill.
func sortByCreatedDesc(reps []SnapshotInfo) {
	for i := 1; i < len(reps); i++ {
		for k := i; k > 0 && mustParse(reps[k].CreatedAt).After(mustParse(reps[k-1].CreatedAt)); k-- {
			reps[k], reps[k-1] = reps[k-1], reps[k]
		}
	}
}
