// O pacote store define as fronteiras com os colaboradores externos do
// engine: o registro remoto de partidas, o canal de notificação de mudanças
// e o cache local de snapshot. O engine só conhece estas interfaces; as
// implementações reais ficam nos subpacotes natskv, memory e snapshot.
package store

import (
	"context"
	"errors"
	"time"

	"jumpclash/internal/match"
)

var (
	// ErrAlreadyExists: Insert com um id que já tem linha.
	ErrAlreadyExists = errors.New("store: record already exists")

	// ErrNotFound: o id não tem nenhuma linha.
	ErrNotFound = errors.New("store: record not found")

	// ErrStatusConflict: a escrita condicional perdeu a corrida — o status
	// da linha mudou entre a leitura e a escrita.
	ErrStatusConflict = errors.New("store: status changed concurrently")
)

// Fields é uma atualização parcial do registro. Campo nil = não mexer.
// Scores tem semântica de merge por chave: chaves presentes são escritas,
// as demais ficam como estão (elas nunca encolhem).
type Fields struct {
	Status       *match.Status
	ParticipantB *match.Participant
	Scores       map[match.Role]int
	UpdatedAt    *time.Time
	StartedAt    *time.Time
	EndedAt      *time.Time
}

// Apply escreve os campos presentes por cima do registro informado.
func (f Fields) Apply(m *match.Match) {
	if f.Status != nil {
		m.Status = *f.Status
	}
	if f.ParticipantB != nil {
		p := *f.ParticipantB
		m.ParticipantB = &p
	}
	if len(f.Scores) > 0 {
		if m.Scores == nil {
			m.Scores = map[match.Role]int{}
		}
		for role, value := range f.Scores {
			m.Scores[role] = value
		}
	}
	if f.UpdatedAt != nil {
		t := *f.UpdatedAt
		m.UpdatedAt = &t
	}
	if f.StartedAt != nil {
		t := *f.StartedAt
		m.StartedAt = &t
	}
	if f.EndedAt != nil {
		t := *f.EndedAt
		m.EndedAt = &t
	}
}

// RecordStore é a tabela durável de partidas, indexada por matchId.
//
// Update é last-write-wins por campo. UpdateWhereStatus é o ponto de
// serialização da corrida de join: a escrita só é aceita se o status atual
// da linha for exatamente o esperado, senão devolve ErrStatusConflict.
type RecordStore interface {
	Insert(ctx context.Context, rec *match.Match) (*match.Match, error)
	Get(ctx context.Context, matchID string) (*match.Match, error)
	Update(ctx context.Context, matchID string, fields Fields) (*match.Match, error)
	UpdateWhereStatus(ctx context.Context, matchID string, want match.Status, fields Fields) (*match.Match, error)
}

// Subscription é o handle de uma inscrição viva no feed de mudanças.
type Subscription interface {
	Stop()
}

// ChangeFeed entrega a nova linha toda vez que ela muda no store.
// A entrega é at-least-once e sem garantia de ordem contra as escritas do
// próprio cliente (o cliente pode ver o eco da própria escrita).
type ChangeFeed interface {
	Subscribe(matchID string, onChange func(*match.Match)) (Subscription, error)
}

// SnapshotCache é o cache local de um slot só: a última partida conhecida
// deste dispositivo/perfil, para recarga instantânea e para sobreviver a
// quedas do backend. Get devolve (nil, nil) quando o slot está vazio.
type SnapshotCache interface {
	Get() (*match.Match, error)
	Set(rec *match.Match) error
	Clear() error
}
