package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status representa o estado de uma partida no seu ciclo de vida.
// idle -> waiting -> ready -> active -> completed
type Status string

const (
	StatusIdle      Status = "idle"      // Nenhuma partida carregada ainda.
	StatusWaiting   Status = "waiting"   // Criada, esperando o segundo jogador.
	StatusReady     Status = "ready"     // Os dois jogadores presentes, pronta para começar.
	StatusActive    Status = "active"    // Partida em andamento.
	StatusCompleted Status = "completed" // Terminal. Um novo id é necessário para jogar de novo.
)

// Role identifica qual dos dois jogadores é o dono de um campo.
// "A" é sempre quem criou a partida, "B" é quem entrou pelo convite.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// DefaultTimerSeconds é a duração padrão de uma partida 1v1.
const DefaultTimerSeconds = 60

// Participant é um jogador dentro do registro da partida.
// Identity é o endereço da carteira; DisplayName é só para exibição.
type Participant struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
}

// Match é a única entidade do sistema: o registro compartilhado de uma
// partida entre um ou dois jogadores. O layout JSON abaixo é exatamente o
// que vai para o store remoto e para o cache local de snapshot.
type Match struct {
	MatchID      string       `json:"matchId"`
	TimerSeconds int          `json:"timerSeconds"`
	Status       Status       `json:"status"`
	ParticipantA *Participant `json:"participantA"`
	ParticipantB *Participant `json:"participantB"`
	Scores       map[Role]int `json:"scores"`
	CreatedAt    *time.Time   `json:"createdAt"`
	UpdatedAt    *time.Time   `json:"updatedAt"`
	StartedAt    *time.Time   `json:"startedAt"`
	EndedAt      *time.Time   `json:"endedAt"`
	IsSolo       bool         `json:"isSolo"`
}

// NewIdle retorna o estado local vazio: nenhuma partida carregada.
func NewIdle() *Match {
	return &Match{
		TimerSeconds: DefaultTimerSeconds,
		Status:       StatusIdle,
		Scores:       map[Role]int{},
	}
}

// New cria o registro inicial de uma partida 1v1. O id é gerado aqui, no
// cliente (uuid v4, 128 bits aleatórios), antes de qualquer ida ao store.
// O placar começa só com o criador; a chave de B aparece quando ele entrar.
func New(creator Participant, timerSeconds int) (*Match, error) {
	if strings.TrimSpace(creator.Identity) == "" {
		return nil, fmt.Errorf("%w: participant identity is required", ErrValidation)
	}
	if timerSeconds <= 0 {
		return nil, fmt.Errorf("%w: timerSeconds must be positive", ErrValidation)
	}

	now := time.Now().UTC()
	return &Match{
		MatchID:      uuid.NewString(),
		TimerSeconds: timerSeconds,
		Status:       StatusWaiting,
		ParticipantA: &creator,
		Scores:       map[Role]int{RoleA: 0},
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}, nil
}

// NewSolo cria uma partida local de um jogador só. Ela nunca passa pelo
// store compartilhado: nasce já ativa, sem timer e sem segundo jogador.
func NewSolo(creator Participant) (*Match, error) {
	if strings.TrimSpace(creator.Identity) == "" {
		return nil, fmt.Errorf("%w: participant identity is required", ErrValidation)
	}

	now := time.Now().UTC()
	return &Match{
		MatchID:      "solo-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		TimerSeconds: 0,
		Status:       StatusActive,
		ParticipantA: &creator,
		Scores:       map[Role]int{RoleA: 0},
		CreatedAt:    &now,
		UpdatedAt:    &now,
		StartedAt:    &now,
		IsSolo:       true,
	}, nil
}

// Loaded informa se existe uma partida carregada (id não vazio).
func (m *Match) Loaded() bool {
	return m != nil && m.MatchID != ""
}

// Joinable informa se a partida ainda aceita o segundo jogador.
func (m *Match) Joinable() bool {
	return m != nil && m.Status == StatusWaiting
}

// Terminal informa se a partida chegou ao estado final.
func (m *Match) Terminal() bool {
	return m != nil && m.Status == StatusCompleted
}

// Clone devolve uma cópia profunda do registro. O engine nunca compartilha
// ponteiros do seu estado interno com quem está de fora.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	if m.ParticipantA != nil {
		pa := *m.ParticipantA
		c.ParticipantA = &pa
	}
	if m.ParticipantB != nil {
		pb := *m.ParticipantB
		c.ParticipantB = &pb
	}
	if m.Scores != nil {
		c.Scores = make(map[Role]int, len(m.Scores))
		for k, v := range m.Scores {
			c.Scores[k] = v
		}
	}
	c.CreatedAt = cloneTime(m.CreatedAt)
	c.UpdatedAt = cloneTime(m.UpdatedAt)
	c.StartedAt = cloneTime(m.StartedAt)
	c.EndedAt = cloneTime(m.EndedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Remaining calcula quanto tempo de partida ainda falta, contando a partir
// de startedAt. Para partidas solo (sem timer) retorna sempre zero.
func (m *Match) Remaining(now time.Time) time.Duration {
	if m == nil || m.IsSolo || m.TimerSeconds <= 0 || m.StartedAt == nil {
		return 0
	}
	deadline := m.StartedAt.Add(time.Duration(m.TimerSeconds) * time.Second)
	if remaining := deadline.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}
