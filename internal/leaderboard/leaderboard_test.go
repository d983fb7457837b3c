package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/healthtracker/internal/session"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func TestBoard_Update(t *testing.T) {
	db, mock := redismock.NewClientMock()
	board := NewBoard(db, session.NewMemoryStore())
	ctx := context.Background()

	mock.ExpectZAdd(PointsKey, &redis.Z{Score: 175, Member: "12"}).SetVal(1)
	mock.ExpectHSet(StreaksKey, "12", 3).SetVal(1)
	require.NoError(t, board.Update(ctx, session.Profile{UserID: 12, Points: 175, Streak: 3}))

	mock.ExpectZAdd(PointsKey, &redis.Z{Score: 0, Member: "13"}).SetErr(errors.New("redis down"))
	assert.Error(t, board.Update(ctx, session.Profile{UserID: 13}))

	// listener errors are only logged
	mock.ExpectZAdd(PointsKey, &redis.Z{Score: 0, Member: "14"}).SetErr(errors.New("redis down"))
	board.SessionChanged(ctx, session.Profile{UserID: 14, Points: 10})

	assert.NoError(t, mock.ExpectationsWereMet())
}

type failingProfiles struct{}

func (failingProfiles) GetProfile(context.Context, int64) (*session.Profile, error) {
	return nil, errors.New("db down")
}

func saveProfile(t *testing.T, store *session.MemoryStore, userID int64, points, streak int) session.Profile {
	t.Helper()

	var saved session.Profile
	require.NoError(t, store.Update(context.Background(), userID, func(ctx context.Context, tx session.Tx) error {
		profile, err := tx.Profile(ctx)
		if err != nil {
			return err
		}
		profile.Points = points
		profile.Streak = streak
		saved = *profile
		return tx.SaveProfile(ctx, profile)
	}))
	return saved
}

func TestBoard_SessionChanged_OutOfOrderNotifications(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := session.NewMemoryStore()
	board := NewBoard(db, store)
	ctx := context.Background()

	first := saveProfile(t, store, 5, 75, 1)
	second := saveProfile(t, store, 5, 100, 1)

	// both notifications write the committed total, whatever their order
	mock.ExpectZAdd(PointsKey, &redis.Z{Score: 100, Member: "5"}).SetVal(1)
	mock.ExpectHSet(StreaksKey, "5", 1).SetVal(1)
	mock.ExpectZAdd(PointsKey, &redis.Z{Score: 100, Member: "5"}).SetVal(0)
	mock.ExpectHSet(StreaksKey, "5", 1).SetVal(0)

	board.SessionChanged(ctx, second)
	board.SessionChanged(ctx, first)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoard_SessionChanged_ProfileReadFails(t *testing.T) {
	db, mock := redismock.NewClientMock()
	board := NewBoard(db, failingProfiles{})

	board.SessionChanged(context.Background(), session.Profile{UserID: 5, Points: 100})

	// nothing is written from the unverified snapshot
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoard_Rebuild(t *testing.T) {
	db, mock := redismock.NewClientMock()
	board := NewBoard(db, session.NewMemoryStore())
	ctx := context.Background()

	mock.ExpectDel(PointsKey, StreaksKey).SetVal(2)
	mock.ExpectZAdd(PointsKey,
		&redis.Z{Score: 300, Member: "1"},
		&redis.Z{Score: 75, Member: "2"},
	).SetVal(2)
	mock.ExpectHSet(StreaksKey, "1", 4, "2", 1).SetVal(2)

	require.NoError(t, board.Rebuild(ctx, []session.Profile{
		{UserID: 1, Points: 300, Streak: 4},
		{UserID: 2, Points: 75, Streak: 1},
	}))

	mock.ExpectDel(PointsKey, StreaksKey).SetVal(0)
	require.NoError(t, board.Rebuild(ctx, nil))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBoard_Top(t *testing.T) {
	db, mock := redismock.NewClientMock()
	board := NewBoard(db, session.NewMemoryStore())
	ctx := context.Background()

	mock.ExpectZRevRangeWithScores(PointsKey, 0, 2).SetVal([]redis.Z{
		{Score: 300, Member: "1"},
		{Score: 175, Member: "12"},
		{Score: 75, Member: "2"},
	})
	mock.ExpectHMGet(StreaksKey, "1", "12", "2").SetVal([]interface{}{"4", "3", nil})

	entries, err := board.Top(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Rank: 1, UserID: 1, Points: 300, Streak: 4},
		{Rank: 2, UserID: 12, Points: 175, Streak: 3},
		{Rank: 3, UserID: 2, Points: 75, Streak: 0},
	}, entries)

	mock.ExpectZRevRangeWithScores(PointsKey, 0, 9).SetVal([]redis.Z{})
	entries, err = board.Top(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	mock.ExpectZRevRangeWithScores(PointsKey, 0, 9).SetErr(errors.New("redis down"))
	_, err = board.Top(ctx, 10)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_HandleTop(t *testing.T) {
	db, mock := redismock.NewClientMock()
	h := NewHandler(NewBoard(db, session.NewMemoryStore()))

	mock.ExpectZRevRangeWithScores(PointsKey, 0, 1).SetVal([]redis.Z{{Score: 50, Member: "3"}})
	mock.ExpectHMGet(StreaksKey, "3").SetVal([]interface{}{"1"})

	req := httptest.NewRequest("GET", "/leaderboard?limit=2", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.HandleTop).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var entries []Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.Equal(t, []Entry{{Rank: 1, UserID: 3, Points: 50, Streak: 1}}, entries)

	rr = httptest.NewRecorder()
	http.HandlerFunc(h.HandleTop).ServeHTTP(rr, httptest.NewRequest("GET", "/leaderboard?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// limit is capped
	mock.ExpectZRevRangeWithScores(PointsKey, 0, MaxLimit-1).SetVal([]redis.Z{})
	rr = httptest.NewRecorder()
	http.HandlerFunc(h.HandleTop).ServeHTTP(rr, httptest.NewRequest("GET", "/leaderboard?limit=1000", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	assert.NoError(t, mock.ExpectationsWereMet())
}
