// Package resource persists study resource snapshots as hashes with
// faculty index sets for scoped listing.
package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusworks/studyrank/internal/domain"
	domres "github.com/campusworks/studyrank/internal/domain/resource"
)

// store is the consumer interface for resources (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, val int64) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo implements usecase/recommend.ResourceReader plus the write path
// used by the ingest and counter endpoints.
type Repo struct {
	store  store
	prefix string
}

// New creates a resource repository. prefix namespaces every key.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Upsert creates or updates a resource snapshot. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, res *domres.Resource) (bool, error) {
	key := r.resKey(res.Category(), res.ID())

	prev, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read existing %s: %w", key, err)
	}
	created := len(prev) == 0

	if err := r.store.HSet(ctx, key, buildHashFields(res)); err != nil {
		return false, fmt.Errorf("hset %s: %w", key, err)
	}

	member := res.Key()
	if err := r.store.SAdd(ctx, r.allIndexKey(), member); err != nil {
		return false, fmt.Errorf("index %s: %w", member, err)
	}
	if res.Faculty() != "" {
		if err := r.store.SAdd(ctx, r.facultyIndexKey(res.Faculty()), member); err != nil {
			return false, fmt.Errorf("faculty index %s: %w", member, err)
		}
	}

	// A faculty change leaves a stale member in the old index set.
	if old := prev[fieldFaculty]; old != "" && old != res.Faculty() {
		if err := r.store.SRem(ctx, r.facultyIndexKey(old), member); err != nil {
			return false, fmt.Errorf("unindex %s from %q: %w", member, old, err)
		}
	}

	return created, nil
}

// Get returns a resource by category and id.
func (r *Repo) Get(ctx context.Context, category domres.Category, id string) (domres.Resource, error) {
	key := r.resKey(category, id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domres.Resource{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domres.Resource{}, domain.ErrResourceNotFound
	}
	return parseHashFields(id, category, fields), nil
}

// ListApproved returns approved resources within a faculty. An empty
// faculty lists every faculty.
func (r *Repo) ListApproved(ctx context.Context, faculty string) ([]domres.Resource, error) {
	idx := r.allIndexKey()
	if faculty != "" {
		idx = r.facultyIndexKey(faculty)
	}
	members, err := r.store.SMembers(ctx, idx)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", idx, err)
	}

	out := make([]domres.Resource, 0, len(members))
	for _, member := range members {
		category, id, ok := splitMember(member)
		if !ok {
			continue
		}
		res, err := r.Get(ctx, category, id)
		if err != nil {
			if errors.Is(err, domain.ErrResourceNotFound) {
				continue
			}
			return nil, err
		}
		if res.Approved() {
			out = append(out, res)
		}
	}
	return out, nil
}

// IncrView increments the view counter and stamps last_viewed.
func (r *Repo) IncrView(ctx context.Context, category domres.Category, id string, at time.Time) error {
	key := r.resKey(category, id)
	if err := r.mustExist(ctx, key); err != nil {
		return err
	}
	if err := r.store.HIncrBy(ctx, key, fieldViewCount, 1); err != nil {
		return fmt.Errorf("incr views %s: %w", key, err)
	}
	if err := r.store.HSet(ctx, key, map[string]string{fieldLastViewed: formatTime(at)}); err != nil {
		return fmt.Errorf("touch last_viewed %s: %w", key, err)
	}
	return nil
}

// IncrDownload increments the download counter. View-only categories
// reject the increment.
func (r *Repo) IncrDownload(ctx context.Context, category domres.Category, id string) error {
	if !category.Downloadable() {
		return fmt.Errorf("%w: %s is view-only", domain.ErrInvalidResource, category)
	}
	key := r.resKey(category, id)
	if err := r.mustExist(ctx, key); err != nil {
		return err
	}
	if err := r.store.HIncrBy(ctx, key, fieldDownloadCount, 1); err != nil {
		return fmt.Errorf("incr downloads %s: %w", key, err)
	}
	return nil
}

func (r *Repo) mustExist(ctx context.Context, key string) error {
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}

func (r *Repo) resKey(category domres.Category, id string) string {
	return r.prefix + "res:" + string(category) + ":" + id
}

func (r *Repo) allIndexKey() string {
	return r.prefix + "idx:res"
}

func (r *Repo) facultyIndexKey(faculty string) string {
	return r.prefix + "idx:faculty:" + faculty
}
