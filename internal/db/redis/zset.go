package redis

import (
	"context"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/campusworks/studyrank/internal/db"
)

// ZAdd adds a member with a score to a sorted set.
func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZRevRangeByScore returns members with min <= score <= max, highest
// score first. limit <= 0 returns everything in range.
func (s *Store) ZRevRangeByScore(ctx context.Context, key string, max, min float64, limit int) ([]string, error) {
	b := s.b().Zrevrangebyscore().Key(key).Max(formatScore(max)).Min(formatScore(min))
	var cmd rueidis.Completed
	if limit > 0 {
		cmd = b.Limit(0, int64(limit)).Build()
	} else {
		cmd = b.Build()
	}
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRevRange, Err: err}
	}
	return members, nil
}

// ZRemRangeByScore removes members with min <= score <= max.
func (s *Store) ZRemRangeByScore(ctx context.Context, key string, max, min float64) error {
	cmd := s.b().Zremrangebyscore().Key(key).Min(formatScore(min)).Max(formatScore(max)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRemRange, Err: err}
	}
	return nil
}

// formatScore renders a score bound, mapping infinities to the
// +inf/-inf forms the server expects.
func formatScore(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
