package leaderboard

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/2beens/healthtracker/internal/session"
	"github.com/2beens/healthtracker/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	PointsKey  = "healthtracker::leaderboard::points"
	StreaksKey = "healthtracker::leaderboard::streaks"

	DefaultLimit = 10
	MaxLimit     = 100
)

type Entry struct {
	Rank   int   `json:"rank"`
	UserID int64 `json:"userId"`
	Points int   `json:"points"`
	Streak int   `json:"streak"`
}

type profileGetter interface {
	GetProfile(ctx context.Context, userID int64) (*session.Profile, error)
}

// Board ranks users by total points in a redis sorted set. The streak of
// each user is kept next to it in a hash.
type Board struct {
	redisClient *redis.Client
	profiles    profileGetter
	userLocks   sync.Map // user id -> *sync.Mutex
}

func NewBoard(redisClient *redis.Client, profiles profileGetter) *Board {
	return &Board{
		redisClient: redisClient,
		profiles:    profiles,
	}
}

func (b *Board) Update(ctx context.Context, profile session.Profile) error {
	member := strconv.FormatInt(profile.UserID, 10)
	if err := b.redisClient.ZAdd(ctx, PointsKey, &redis.Z{
		Score:  float64(profile.Points),
		Member: member,
	}).Err(); err != nil {
		return fmt.Errorf("set points: %w", err)
	}
	if err := b.redisClient.HSet(ctx, StreaksKey, member, profile.Streak).Err(); err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}

// SessionChanged keeps the board in sync with saved and deleted sessions.
// Notifications may arrive out of commit order, so the committed profile is
// read again instead of trusting the snapshot.
func (b *Board) SessionChanged(ctx context.Context, changed session.Profile) {
	lock, _ := b.userLocks.LoadOrStore(changed.UserID, &sync.Mutex{})
	lock.(*sync.Mutex).Lock()
	defer lock.(*sync.Mutex).Unlock()

	profile, err := b.profiles.GetProfile(ctx, changed.UserID)
	if err != nil {
		log.Errorf("leaderboard: get profile of user [%d]: %s", changed.UserID, err)
		return
	}

	if err := b.Update(ctx, *profile); err != nil {
		log.Errorf("update leaderboard for user [%d]: %s", profile.UserID, err)
	}
}

// Rebuild replaces the board with the given profiles.
func (b *Board) Rebuild(ctx context.Context, profiles []session.Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "leaderboard.rebuild")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := b.redisClient.Del(ctx, PointsKey, StreaksKey).Err(); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	if len(profiles) == 0 {
		return nil
	}

	members := make([]*redis.Z, 0, len(profiles))
	streaks := make([]interface{}, 0, 2*len(profiles))
	for _, profile := range profiles {
		member := strconv.FormatInt(profile.UserID, 10)
		members = append(members, &redis.Z{Score: float64(profile.Points), Member: member})
		streaks = append(streaks, member, profile.Streak)
	}

	if err := b.redisClient.ZAdd(ctx, PointsKey, members...).Err(); err != nil {
		return fmt.Errorf("set points: %w", err)
	}
	if err := b.redisClient.HSet(ctx, StreaksKey, streaks...).Err(); err != nil {
		return fmt.Errorf("set streaks: %w", err)
	}

	log.Debugf("leaderboard rebuilt with %d users", len(profiles))
	return nil
}

// Top returns the best limit users, highest points first.
func (b *Board) Top(ctx context.Context, limit int) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "leaderboard.top")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	scores, err := b.redisClient.ZRevRangeWithScores(ctx, PointsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("get top points: %w", err)
	}
	if len(scores) == 0 {
		return []Entry{}, nil
	}

	members := make([]string, 0, len(scores))
	for _, z := range scores {
		members = append(members, fmt.Sprint(z.Member))
	}

	streaks, err := b.redisClient.HMGet(ctx, StreaksKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("get streaks: %w", err)
	}

	entries := make([]Entry, 0, len(scores))
	for i, z := range scores {
		userID, err := strconv.ParseInt(members[i], 10, 64)
		if err != nil {
			log.Warnf("leaderboard: skip invalid member [%s]", members[i])
			continue
		}

		entry := Entry{
			Rank:   len(entries) + 1,
			UserID: userID,
			Points: int(z.Score),
		}
		if i < len(streaks) {
			if s, ok := streaks[i].(string); ok {
				entry.Streak, _ = strconv.Atoi(s)
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
