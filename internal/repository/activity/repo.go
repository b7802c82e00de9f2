// Package activity persists the per-user view and download log as a
// time-scored sorted set.
package activity

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/campusworks/studyrank/internal/domain"
	domres "github.com/campusworks/studyrank/internal/domain/resource"
)

// retention bounds how far back the log is kept. Entries past it are
// pruned on write.
const retention = 90 * 24 * time.Hour

// store is the consumer interface for the activity log (ISP).
type store interface {
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRevRangeByScore(ctx context.Context, key string, max, min float64, limit int) ([]string, error)
	ZRemRangeByScore(ctx context.Context, key string, max, min float64) error
}

// Invalidator drops a user's cached recommendation bundle. Recording
// activity changes what the bundle would contain, so every write
// invalidates before returning.
type Invalidator interface {
	Invalidate(ctx context.Context, user string)
}

// Repo implements usecase/recommend.ActivityReader plus the write path.
type Repo struct {
	store  store
	inv    Invalidator
	prefix string
}

// New creates an activity repository. inv may be nil when no bundle
// cache is configured.
func New(s store, inv Invalidator, prefix string) *Repo {
	return &Repo{store: s, inv: inv, prefix: prefix}
}

// Record appends one activity entry and invalidates the user's bundle.
func (r *Repo) Record(ctx context.Context, entry domres.ActivityEntry) error {
	key := r.actKey(entry.User)
	member := encodeMember(entry)
	if err := r.store.ZAdd(ctx, key, float64(entry.OccurredAt.Unix()), member); err != nil {
		return fmt.Errorf("zadd %s: %w", key, err)
	}

	cutoff := entry.OccurredAt.Add(-retention)
	if err := r.store.ZRemRangeByScore(ctx, key, float64(cutoff.Unix()), math.Inf(-1)); err != nil {
		return fmt.Errorf("prune %s: %w", key, err)
	}

	if r.inv != nil {
		r.inv.Invalidate(ctx, entry.User)
	}
	return nil
}

// Recent returns the user's entries since the given time, newest first.
func (r *Repo) Recent(ctx context.Context, user string, since time.Time) ([]domres.ActivityEntry, error) {
	key := r.actKey(user)
	members, err := r.store.ZRevRangeByScore(ctx, key, math.Inf(1), float64(since.Unix()), 0)
	if err != nil {
		return nil, fmt.Errorf("zrevrangebyscore %s: %w", key, err)
	}

	entries := make([]domres.ActivityEntry, 0, len(members))
	for _, member := range members {
		entry, ok := decodeMember(user, member)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	// Same-second entries come back in member order; restore time order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
	return entries, nil
}

// MostRecentView returns the user's latest view entry.
func (r *Repo) MostRecentView(ctx context.Context, user string) (domres.ActivityEntry, error) {
	entries, err := r.Recent(ctx, user, time.Time{})
	if err != nil {
		return domres.ActivityEntry{}, err
	}
	for _, entry := range entries {
		if entry.Kind == domres.ActivityView {
			return entry, nil
		}
	}
	return domres.ActivityEntry{}, domain.ErrNotFound
}

func (r *Repo) actKey(user string) string {
	return r.prefix + "act:" + user
}


// encodeMember renders an entry as "kind:category:id:nanos". The nanos
// suffix keeps members unique when a user hits the same resource twice.
func encodeMember(entry domres.ActivityEntry) string {
	return string(entry.Kind) + ":" + string(entry.Category) + ":" +
		entry.ContentID + ":" + strconv.FormatInt(entry.OccurredAt.UnixNano(), 10)
}

// decodeMember parses "kind:category:id:nanos"; malformed members are
// skipped by the caller.
func decodeMember(user, member string) (domres.ActivityEntry, bool) {
	kindRaw, rest, ok := strings.Cut(member, ":")
	if !ok {
		return domres.ActivityEntry{}, false
	}
	catRaw, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return domres.ActivityEntry{}, false
	}
	idx := strings.LastIndex(rest, ":")
	if idx <= 0 {
		return domres.ActivityEntry{}, false
	}
	id, nanosRaw := rest[:idx], rest[idx+1:]

	kind := domres.ActivityKind(kindRaw)
	if kind != domres.ActivityView && kind != domres.ActivityDownload {
		return domres.ActivityEntry{}, false
	}
	category, err := domres.ParseCategory(catRaw)
	if err != nil {
		return domres.ActivityEntry{}, false
	}
	nanos, err := strconv.ParseInt(nanosRaw, 10, 64)
	if err != nil {
		return domres.ActivityEntry{}, false
	}

	return domres.ActivityEntry{
		User:       user,
		Kind:       kind,
		Category:   category,
		ContentID:  id,
		OccurredAt: time.Unix(0, nanos).UTC(),
	}, true
}
