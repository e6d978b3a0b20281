// Testes de integração: precisam de um servidor NATS com JetStream.
// Rode com NATS_URL apontando para ele (ex: nats://localhost:4222);
// sem a variável, os testes são pulados.
package natskv

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumpclash/internal/match"
	"jumpclash/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set; skipping NATS KV integration tests")
	}

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	bucket := fmt.Sprintf("jumpclash-test-%d", time.Now().UnixNano())
	s, err := Open(nc, bucket)
	require.NoError(t, err)

	t.Cleanup(func() {
		js, err := nc.JetStream()
		if err == nil {
			js.DeleteKeyValue(bucket)
		}
	})
	return s
}

func TestInsertGetUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := match.New(match.Participant{Identity: "0xAAA", DisplayName: "Alice"}, 60)
	require.NoError(t, err)

	_, err = s.Insert(ctx, rec)
	require.NoError(t, err)

	_, err = s.Insert(ctx, rec)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.Get(ctx, rec.MatchID)
	require.NoError(t, err)
	assert.Equal(t, rec.MatchID, got.MatchID)
	assert.Equal(t, match.StatusWaiting, got.Status)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	active := match.StatusActive
	now := time.Now().UTC()
	updated, err := s.Update(ctx, rec.MatchID, store.Fields{
		Status:    &active,
		StartedAt: &now,
		UpdatedAt: &now,
	})
	require.NoError(t, err)
	assert.Equal(t, match.StatusActive, updated.Status)
}

func TestUpdateWhereStatus_JoinRace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := match.New(match.Participant{Identity: "0xAAA"}, 60)
	require.NoError(t, err)
	_, err = s.Insert(ctx, rec)
	require.NoError(t, err)

	ready := match.StatusReady
	var wg sync.WaitGroup
	wins := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			now := time.Now().UTC()
			_, err := s.UpdateWhereStatus(ctx, rec.MatchID, match.StatusWaiting, store.Fields{
				Status:       &ready,
				ParticipantB: &match.Participant{Identity: fmt.Sprintf("0xB%02d", n)},
				Scores:       map[match.Role]int{match.RoleB: 0},
				UpdatedAt:    &now,
			})
			if err == nil {
				wins <- struct{}{}
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "the KV revision must serialize the join race")
}

func TestSubscribe(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := match.New(match.Participant{Identity: "0xAAA"}, 60)
	require.NoError(t, err)
	_, err = s.Insert(ctx, rec)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []match.Status
	sub, err := s.Subscribe(rec.MatchID, func(m *match.Match) {
		mu.Lock()
		seen = append(seen, m.Status)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Stop()

	active := match.StatusActive
	_, err = s.Update(ctx, rec.MatchID, store.Fields{Status: &active})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, st := range seen {
			if st == match.StatusActive {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)
}
