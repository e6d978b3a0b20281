// O pacote memory implementa o RecordStore e o ChangeFeed inteiramente em
// memória. É o backend do modo de desenvolvimento do gateway e a base dos
// testes do engine: mesmo contrato do natskv, sem precisar de servidor.
package memory

import (
	"context"
	"sync"

	"jumpclash/internal/match"
	"jumpclash/internal/store"
)

type subscriber struct {
	id       int
	matchID  string
	onChange func(*match.Match)
}

// Store guarda as partidas num mapa protegido por mutex e faz fan-out das
// mudanças para os inscritos de cada matchId.
type Store struct {
	mu      sync.RWMutex
	records map[string]*match.Match
	subs    map[int]*subscriber
	nextSub int
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]*match.Match),
		subs:    make(map[int]*subscriber),
	}
}

func (s *Store) Insert(ctx context.Context, rec *match.Match) (*match.Match, error) {
	s.mu.Lock()
	if _, exists := s.records[rec.MatchID]; exists {
		s.mu.Unlock()
		return nil, store.ErrAlreadyExists
	}
	stored := rec.Clone()
	s.records[rec.MatchID] = stored
	result := stored.Clone()
	s.mu.Unlock()

	s.notify(result)
	return result, nil
}

func (s *Store) Get(ctx context.Context, matchID string) (*match.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[matchID]
	if !exists {
		return nil, store.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) Update(ctx context.Context, matchID string, fields store.Fields) (*match.Match, error) {
	s.mu.Lock()
	rec, exists := s.records[matchID]
	if !exists {
		s.mu.Unlock()
		return nil, store.ErrNotFound
	}
	fields.Apply(rec)
	result := rec.Clone()
	s.mu.Unlock()

	s.notify(result)
	return result, nil
}

func (s *Store) UpdateWhereStatus(ctx context.Context, matchID string, want match.Status, fields store.Fields) (*match.Match, error) {
	s.mu.Lock()
	rec, exists := s.records[matchID]
	if !exists {
		s.mu.Unlock()
		return nil, store.ErrNotFound
	}
	// A verificação e a escrita acontecem sob o mesmo lock: é isso que
	// garante exatamente um vencedor quando dois joins chegam juntos.
	if rec.Status != want {
		s.mu.Unlock()
		return nil, store.ErrStatusConflict
	}
	fields.Apply(rec)
	result := rec.Clone()
	s.mu.Unlock()

	s.notify(result)
	return result, nil
}

// --- ChangeFeed ---

type memorySub struct {
	store *Store
	id    int
}

func (ms *memorySub) Stop() {
	ms.store.mu.Lock()
	delete(ms.store.subs, ms.id)
	ms.store.mu.Unlock()
}

func (s *Store) Subscribe(matchID string, onChange func(*match.Match)) (store.Subscription, error) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = &subscriber{id: id, matchID: matchID, onChange: onChange}

	// Igual ao watch do JetStream: quem se inscreve recebe primeiro o valor
	// atual da linha, se ela existir.
	var current *match.Match
	if rec, exists := s.records[matchID]; exists {
		current = rec.Clone()
	}
	s.mu.Unlock()

	if current != nil {
		go onChange(current)
	}
	return &memorySub{store: s, id: id}, nil
}

// notify entrega o novo valor para cada inscrito, fora do lock e em
// goroutines próprias — o feed real também é assíncrono e sem ordem.
func (s *Store) notify(rec *match.Match) {
	s.mu.RLock()
	targets := make([]func(*match.Match), 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.matchID == rec.MatchID {
			targets = append(targets, sub.onChange)
		}
	}
	s.mu.RUnlock()

	for _, onChange := range targets {
		go onChange(rec.Clone())
	}
}

// Subscribers conta as inscrições vivas de um matchId. Usado nos testes
// para provar que o reset derruba a inscrição.
func (s *Store) Subscribers(matchID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.subs {
		if sub.matchID == matchID {
			count++
		}
	}
	return count
}

// --- SnapshotCache em memória ---

// Cache é um SnapshotCache volátil, para testes e para o modo dev.
type Cache struct {
	mu  sync.Mutex
	rec *match.Match
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get() (*match.Match, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec.Clone(), nil
}

func (c *Cache) Set(rec *match.Match) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rec = rec.Clone()
	return nil
}

func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rec = nil
	return nil
}
