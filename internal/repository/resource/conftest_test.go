package resource

import (
	"context"
	"strconv"
	"time"

	domres "github.com/campusworks/studyrank/internal/domain/resource"
)

// memStore is an in-memory store implementing the consumer interface.
type memStore struct {
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}

	hgetAllErr error
	smembersEr error
}

func newMemStore() *memStore {
	return &memStore{
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]map[string]struct{}),
	}
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string]string) error {
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.hgetAllErr != nil {
		return nil, m.hgetAllErr
	}
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) HIncrBy(_ context.Context, key, field string, val int64) error {
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	h[field] = incrString(h[field], val)
	return nil
}

func (m *memStore) SAdd(_ context.Context, key string, members ...string) error {
	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]struct{})
		m.sets[key] = s
	}
	for _, member := range members {
		s[member] = struct{}{}
	}
	return nil
}

func (m *memStore) SRem(_ context.Context, key string, members ...string) error {
	for _, member := range members {
		delete(m.sets[key], member)
	}
	return nil
}

func (m *memStore) SMembers(_ context.Context, key string) ([]string, error) {
	if m.smembersEr != nil {
		return nil, m.smembersEr
	}
	out := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return out, nil
}

func incrString(s string, by int64) string {
	n, _ := strconv.ParseInt(s, 10, 64)
	return strconv.FormatInt(n+by, 10)
}

// approved builds an approved Resource fixture.
func approved(id string, category domres.Category, title, faculty string) domres.Resource {
	return domres.Reconstruct(
		id, category, title, "desc", "content about "+title, "Computer Science", faculty,
		domres.StatusApproved, 0, 0, time.Time{},
	)
}
