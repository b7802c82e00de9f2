// Package profile reads user profile attributes used for faculty scoping.
package profile

import (
	"context"
	"fmt"
)

const fieldFaculty = "faculty"

// store is the consumer interface for profiles (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo implements usecase/recommend.ProfileReader.
type Repo struct {
	store  store
	prefix string
}

// New creates a profile repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// FacultyOf returns the user's profile faculty. A missing profile or an
// unset faculty field both yield "".
func (r *Repo) FacultyOf(ctx context.Context, user string) (string, error) {
	key := r.userKey(user)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return "", fmt.Errorf("hgetall %s: %w", key, err)
	}
	return fields[fieldFaculty], nil
}

// SetFaculty stores or updates the user's faculty assignment.
func (r *Repo) SetFaculty(ctx context.Context, user, faculty string) error {
	key := r.userKey(user)
	if err := r.store.HSet(ctx, key, map[string]string{fieldFaculty: faculty}); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (r *Repo) userKey(user string) string {
	return r.prefix + "user:" + user
}
