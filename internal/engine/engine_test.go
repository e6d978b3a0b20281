package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumpclash/internal/match"
	"jumpclash/internal/store"
	"jumpclash/internal/store/memory"
)

var (
	alice = match.Participant{Identity: "0xAAA", DisplayName: "Alice"}
	bob   = match.Participant{Identity: "0xBBB", DisplayName: "Bob"}
)

// newTestEngine builds an engine over the shared in-memory backend, with an
// OnChange recorder so tests can wait for pushes to land.
func newTestEngine(t *testing.T, mem *memory.Store) (*Engine, *changeRecorder) {
	t.Helper()
	rec := &changeRecorder{}
	e := New(Deps{
		Store:     mem,
		Feed:      mem,
		Cache:     memory.NewCache(),
		ShareBase: "https://jumpclash.xyz",
		OnChange:  rec.record,
	})
	t.Cleanup(e.Close)
	return e, rec
}

type changeRecorder struct {
	mu      sync.Mutex
	history []*match.Match
}

func (r *changeRecorder) record(m *match.Match) {
	r.mu.Lock()
	r.history = append(r.history, m)
	r.mu.Unlock()
}

func (r *changeRecorder) waitForStatus(t *testing.T, want match.Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, m := range r.history {
			if m.Status == want {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "never saw status %s", want)
}

// Two players, two engines, one shared store: the full happy path.
func TestTwoPlayerLifecycle(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()

	creator, creatorChanges := newTestEngine(t, mem)
	joiner, _ := newTestEngine(t, mem)

	matchID, err := creator.CreateMatch(ctx, alice, 60)
	require.NoError(t, err)

	snap := creator.Snapshot()
	assert.Equal(t, match.StatusWaiting, snap.Status)
	assert.Equal(t, "https://jumpclash.xyz/join/"+matchID, creator.ShareLink())

	joined, err := joiner.JoinMatch(ctx, matchID, bob)
	require.NoError(t, err)
	assert.True(t, joined)

	snap = joiner.Snapshot()
	assert.Equal(t, match.StatusReady, snap.Status)
	require.NotNil(t, snap.ParticipantB)
	assert.Equal(t, "Bob", snap.ParticipantB.DisplayName)

	// The creator finds out about the join through the change feed.
	creatorChanges.waitForStatus(t, match.StatusReady)

	require.NoError(t, creator.StartMatch())
	creatorChanges.waitForStatus(t, match.StatusActive)

	// Scores flow both ways through the store.
	require.NoError(t, creator.UpdateScore(match.RoleA, 5))
	require.NoError(t, joiner.UpdateScore(match.RoleB, 3))

	require.Eventually(t, func() bool {
		s := creator.Snapshot()
		return s.ScoreOf(match.RoleA) == 5 && s.ScoreOf(match.RoleB) == 3
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, creator.EndMatch())
	require.Eventually(t, func() bool {
		return creator.Snapshot().Status == match.StatusCompleted &&
			joiner.Snapshot().Status == match.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCreateMatch_RequiresIdleState(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()
	e, _ := newTestEngine(t, mem)

	_, err := e.CreateMatch(ctx, alice, 60)
	require.NoError(t, err)

	_, err = e.CreateMatch(ctx, alice, 60)
	assert.ErrorIs(t, err, match.ErrInvalidState)
}

func TestJoinMatch_MissingID(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()
	e, _ := newTestEngine(t, mem)

	joined, err := e.JoinMatch(ctx, "does-not-exist", bob)
	assert.False(t, joined)
	assert.ErrorIs(t, err, match.ErrNotFound)

	// Local state stays untouched after a failed join.
	assert.False(t, e.Snapshot().Loaded())
}

func TestJoinMatch_NotJoinable(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()

	creator, _ := newTestEngine(t, mem)
	matchID, err := creator.CreateMatch(ctx, alice, 60)
	require.NoError(t, err)

	first, _ := newTestEngine(t, mem)
	joined, err := first.JoinMatch(ctx, matchID, bob)
	require.NoError(t, err)
	require.True(t, joined)

	// A third player hitting a full match gets a clean refusal.
	late, _ := newTestEngine(t, mem)
	joined, err = late.JoinMatch(ctx, matchID, match.Participant{Identity: "0xCCC"})
	assert.False(t, joined)
	assert.ErrorIs(t, err, match.ErrNotJoinable)
	assert.False(t, late.Snapshot().Loaded())
}

func TestJoinMatch_CreatorOpensOwnLink(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()
	e, _ := newTestEngine(t, mem)

	matchID, err := e.CreateMatch(ctx, alice, 60)
	require.NoError(t, err)

	// The creator following their own invite link is already in.
	joined, err := e.JoinMatch(ctx, matchID, alice)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, match.StatusWaiting, e.Snapshot().Status)
}

func TestJoinMatch_Validation(t *testing.T) {
	mem := memory.NewStore()
	e, _ := newTestEngine(t, mem)

	_, err := e.JoinMatch(context.Background(), "  ", bob)
	assert.ErrorIs(t, err, match.ErrValidation)

	_, err = e.JoinMatch(context.Background(), "some-id", match.Participant{})
	assert.ErrorIs(t, err, match.ErrValidation)
}

func TestFetchMatch(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()

	creator, _ := newTestEngine(t, mem)
	matchID, err := creator.CreateMatch(ctx, alice, 60)
	require.NoError(t, err)

	viewer, _ := newTestEngine(t, mem)
	rec, err := viewer.FetchMatch(ctx, matchID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, matchID, rec.MatchID)
	assert.Equal(t, matchID, viewer.Snapshot().MatchID)

	// Missing match is a nil result, not an error.
	rec, err = viewer.FetchMatch(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, rec)

	_, err = viewer.FetchMatch(ctx, "")
	assert.ErrorIs(t, err, match.ErrValidation)
}

func TestStartMatch_OnlyFromReady(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()
	e, _ := newTestEngine(t, mem)

	err := e.StartMatch()
	assert.ErrorIs(t, err, match.ErrInvalidState)

	_, err = e.CreateMatch(ctx, alice, 60)
	require.NoError(t, err)

	// Still waiting for the second player: start is refused and nothing
	// is written to the store.
	err = e.StartMatch()
	assert.ErrorIs(t, err, match.ErrInvalidState)
	assert.Equal(t, match.StatusWaiting, e.Snapshot().Status)

	stored, err := mem.Get(ctx, e.Snapshot().MatchID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusWaiting, stored.Status)
}

func TestSoloMatch_NeverTouchesStore(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()
	e, _ := newTestEngine(t, mem)

	matchID, err := e.CreateSoloMatch(alice)
	require.NoError(t, err)

	snap := e.Snapshot()
	assert.True(t, snap.IsSolo)
	assert.Equal(t, match.StatusActive, snap.Status)
	assert.Equal(t, "", e.ShareLink())

	_, err = mem.Get(ctx, matchID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, mem.Subscribers(matchID))

	require.NoError(t, e.UpdateScore(match.RoleA, 12))
	assert.Equal(t, 12, e.Snapshot().ScoreOf(match.RoleA))

	require.NoError(t, e.EndMatch())
	assert.Equal(t, match.StatusCompleted, e.Snapshot().Status)
	_, err = mem.Get(ctx, matchID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEndMatch_IdempotentOnCompleted(t *testing.T) {
	mem := memory.NewStore()
	e, _ := newTestEngine(t, mem)

	_, err := e.CreateSoloMatch(alice)
	require.NoError(t, err)

	require.NoError(t, e.EndMatch())
	endedAt := e.Snapshot().EndedAt
	require.NotNil(t, endedAt)

	// Ending an already completed match is a silent no-op.
	require.NoError(t, e.EndMatch())
	assert.Equal(t, *endedAt, *e.Snapshot().EndedAt)

	empty, _ := newTestEngine(t, mem)
	assert.ErrorIs(t, empty.EndMatch(), match.ErrInvalidState)
}

func TestResetMatch(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()
	cache := memory.NewCache()

	rec := &changeRecorder{}
	e := New(Deps{Store: mem, Feed: mem, Cache: cache, OnChange: rec.record})
	t.Cleanup(e.Close)

	matchID, err := e.CreateMatch(ctx, alice, 60)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return mem.Subscribers(matchID) == 1
	}, time.Second, 10*time.Millisecond)

	e.ResetMatch()

	snap := e.Snapshot()
	assert.False(t, snap.Loaded())
	assert.Equal(t, match.StatusIdle, snap.Status)
	assert.Equal(t, 0, mem.Subscribers(matchID), "reset must drop the subscription")

	cached, err := cache.Get()
	require.NoError(t, err)
	assert.Nil(t, cached, "reset must clear the local snapshot")

	// The remote record is untouched: the other player keeps their match.
	stored, err := mem.Get(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, matchID, stored.MatchID)

	// Resetting twice in a row is the same as once.
	e.ResetMatch()
	assert.False(t, e.Snapshot().Loaded())
}

func TestSeedFromCache(t *testing.T) {
	mem := memory.NewStore()
	cache := memory.NewCache()

	saved, err := match.New(alice, 60)
	require.NoError(t, err)
	saved.Status = match.StatusReady
	saved.ParticipantB = &bob
	require.NoError(t, cache.Set(saved))

	// A fresh engine over the same cache picks the match back up, even
	// before any remote read.
	e := New(Deps{Store: mem, Feed: mem, Cache: cache})
	t.Cleanup(e.Close)

	snap := e.Snapshot()
	assert.Equal(t, saved.MatchID, snap.MatchID)
	assert.Equal(t, match.StatusReady, snap.Status)
}

func TestRemotePushOverridesLocalState(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()

	creator, creatorChanges := newTestEngine(t, mem)
	matchID, err := creator.CreateMatch(ctx, alice, 60)
	require.NoError(t, err)

	// A write from elsewhere lands on the store; the push must replace the
	// engine's state wholesale.
	ready := match.StatusReady
	now := time.Now().UTC()
	_, err = mem.Update(ctx, matchID, store.Fields{
		Status:       &ready,
		ParticipantB: &bob,
		Scores:       map[match.Role]int{match.RoleB: 0},
		UpdatedAt:    &now,
	})
	require.NoError(t, err)

	creatorChanges.waitForStatus(t, match.StatusReady)
	snap := creator.Snapshot()
	assert.Equal(t, match.StatusReady, snap.Status)
	require.NotNil(t, snap.ParticipantB)
}
