package match

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var creator = Participant{Identity: "0xAAA", DisplayName: "Alice"}

func TestNew_InitialRecord(t *testing.T) {
	m, err := New(creator, 90)
	require.NoError(t, err)

	assert.NotEmpty(t, m.MatchID)
	assert.Equal(t, StatusWaiting, m.Status)
	assert.Equal(t, 90, m.TimerSeconds)
	require.NotNil(t, m.ParticipantA)
	assert.Equal(t, "0xAAA", m.ParticipantA.Identity)
	assert.Nil(t, m.ParticipantB)

	// Only the creator's score slot exists at birth.
	assert.Equal(t, map[Role]int{RoleA: 0}, m.Scores)

	require.NotNil(t, m.CreatedAt)
	require.NotNil(t, m.UpdatedAt)
	assert.Equal(t, *m.CreatedAt, *m.UpdatedAt)
	assert.Nil(t, m.StartedAt)
	assert.Nil(t, m.EndedAt)
	assert.False(t, m.IsSolo)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Participant{}, 60)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = New(creator, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = New(creator, -10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNew_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		m, err := New(creator, 60)
		require.NoError(t, err)
		assert.False(t, seen[m.MatchID], "duplicate match id %s", m.MatchID)
		seen[m.MatchID] = true
	}
}

func TestNewSolo_Shape(t *testing.T) {
	m, err := NewSolo(creator)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(m.MatchID, "solo-"))
	assert.Len(t, m.MatchID, len("solo-")+12)
	assert.True(t, m.IsSolo)

	// Solo matches are born playable: active, no countdown, no second slot.
	assert.Equal(t, StatusActive, m.Status)
	assert.Equal(t, 0, m.TimerSeconds)
	assert.Nil(t, m.ParticipantB)
	require.NotNil(t, m.StartedAt)
	assert.Equal(t, map[Role]int{RoleA: 0}, m.Scores)
}

func TestNewIdle(t *testing.T) {
	m := NewIdle()
	assert.Equal(t, StatusIdle, m.Status)
	assert.False(t, m.Loaded())
	assert.Equal(t, DefaultTimerSeconds, m.TimerSeconds)
}

func TestPredicates(t *testing.T) {
	m, err := New(creator, 60)
	require.NoError(t, err)

	assert.True(t, m.Loaded())
	assert.True(t, m.Joinable())
	assert.False(t, m.Terminal())

	m.Status = StatusReady
	assert.False(t, m.Joinable())

	m.Status = StatusCompleted
	assert.True(t, m.Terminal())

	var nilMatch *Match
	assert.False(t, nilMatch.Loaded())
	assert.False(t, nilMatch.Joinable())
	assert.False(t, nilMatch.Terminal())
}

func TestClone_DeepCopy(t *testing.T) {
	m, err := New(creator, 60)
	require.NoError(t, err)
	m.ParticipantB = &Participant{Identity: "0xBBB", DisplayName: "Bob"}
	m.Scores[RoleB] = 3

	c := m.Clone()
	require.Equal(t, m, c)

	// Mutating the clone must not leak into the original.
	c.Scores[RoleA] = 99
	c.ParticipantB.DisplayName = "Mallory"
	newTime := time.Now().UTC().Add(time.Hour)
	*c.UpdatedAt = newTime

	assert.Equal(t, 0, m.Scores[RoleA])
	assert.Equal(t, "Bob", m.ParticipantB.DisplayName)
	assert.NotEqual(t, newTime, *m.UpdatedAt)

	var nilMatch *Match
	assert.Nil(t, nilMatch.Clone())
}

func TestJSONRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	m := &Match{
		MatchID:      "abc-123",
		TimerSeconds: 45,
		Status:       StatusActive,
		ParticipantA: &Participant{Identity: "0xAAA", DisplayName: "Alice"},
		ParticipantB: &Participant{Identity: "0xBBB", DisplayName: "Bob"},
		Scores:       map[Role]int{RoleA: 2, RoleB: 5},
		CreatedAt:    &now,
		UpdatedAt:    &now,
		StartedAt:    &now,
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	// The wire layout is part of the contract with the store.
	assert.Contains(t, string(data), `"matchId":"abc-123"`)
	assert.Contains(t, string(data), `"timerSeconds":45`)
	assert.Contains(t, string(data), `"participantA"`)
	assert.Contains(t, string(data), `"isSolo":false`)

	var back Match
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, &back)
}

func TestRemaining(t *testing.T) {
	start := time.Now().UTC()
	m := &Match{
		MatchID:      "x",
		TimerSeconds: 60,
		Status:       StatusActive,
		StartedAt:    &start,
	}

	assert.Equal(t, 60*time.Second, m.Remaining(start))
	assert.Equal(t, 15*time.Second, m.Remaining(start.Add(45*time.Second)))

	// Past the deadline the remainder clamps at zero.
	assert.Equal(t, time.Duration(0), m.Remaining(start.Add(2*time.Minute)))

	solo, err := NewSolo(creator)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), solo.Remaining(start))

	m.StartedAt = nil
	assert.Equal(t, time.Duration(0), m.Remaining(start))
}
