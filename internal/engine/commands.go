package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"jumpclash/internal/match"
	"jumpclash/internal/store"
)

// writeTimeout limita as escritas best-effort (start/score/end), que não
// têm um chamador esperando pelo resultado remoto.
const writeTimeout = 10 * time.Second

// CreateMatch gera o id, monta o registro inicial em 'waiting' e o grava no
// store. Só adota o estado se a escrita remota foi aceita: um falso
// positivo aqui deixaria dois clientes acreditando em partidas que não
// existem, então criação NÃO é otimista.
func (e *Engine) CreateMatch(ctx context.Context, creator match.Participant, timerSeconds int) (string, error) {
	var loaded bool
	e.do(func() {
		loaded = e.current.Loaded()
	})
	if loaded {
		return "", fmt.Errorf("%w: a match is already loaded, reset first", match.ErrInvalidState)
	}

	rec, err := match.New(creator, timerSeconds)
	if err != nil {
		return "", err
	}

	created, err := e.deps.Store.Insert(ctx, rec)
	if err != nil {
		// Estado local fica intocado: nada foi adotado.
		return "", fmt.Errorf("%w: %v", match.ErrRemoteWrite, err)
	}

	e.do(func() {
		e.adopt(created)
	})
	return created.MatchID, nil
}

// CreateSoloMatch cria uma partida local de um jogador: nenhuma ida ao
// store, nenhuma inscrição, nenhum timer. Nasce ativa e pronta para jogar.
func (e *Engine) CreateSoloMatch(creator match.Participant) (string, error) {
	var loaded bool
	e.do(func() {
		loaded = e.current.Loaded()
	})
	if loaded {
		return "", fmt.Errorf("%w: a match is already loaded, reset first", match.ErrInvalidState)
	}

	rec, err := match.NewSolo(creator)
	if err != nil {
		return "", err
	}

	e.do(func() {
		e.adopt(rec)
	})
	return rec.MatchID, nil
}

// FetchMatch faz a leitura pontual de uma partida e a adota como estado
// atual. "Não existe" não é erro: devolve (nil, nil), e a UI trata como
// "não dá para prosseguir". Falha de transporte também devolve nil, mas com
// o erro classificado para o log distinguir os dois casos.
func (e *Engine) FetchMatch(ctx context.Context, matchID string) (*match.Match, error) {
	if strings.TrimSpace(matchID) == "" {
		return nil, fmt.Errorf("%w: match id is required", match.ErrValidation)
	}

	rec, err := e.deps.Store.Get(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", match.ErrRemoteRead, err)
	}

	e.do(func() {
		e.adopt(rec)
	})
	return rec.Clone(), nil
}

// JoinMatch entra numa partida pelo id do convite. A ordem canônica é
// buscar-validar-entrar: lemos a linha, conferimos que ela ainda está em
// 'waiting' e só então escrevemos — e a escrita em si é condicional ao
// status, porque outro jogador pode ter entrado entre a leitura e a
// escrita. Perder essa corrida devolve false, não exceção: é um resultado
// esperado, não uma falha.
func (e *Engine) JoinMatch(ctx context.Context, matchID string, joiner match.Participant) (bool, error) {
	if strings.TrimSpace(matchID) == "" {
		return false, fmt.Errorf("%w: match id is required", match.ErrValidation)
	}
	if strings.TrimSpace(joiner.Identity) == "" {
		return false, fmt.Errorf("%w: participant identity is required", match.ErrValidation)
	}

	// Atalho: o criador abrindo o próprio link de convite não "entra" de
	// novo, ele já está na partida.
	var alreadyCreator bool
	e.do(func() {
		alreadyCreator = e.current.Loaded() &&
			e.current.MatchID == matchID &&
			e.current.ParticipantA != nil &&
			e.current.ParticipantA.Identity == joiner.Identity
	})
	if alreadyCreator {
		return true, nil
	}

	rec, err := e.deps.Store.Get(ctx, matchID)
	if errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("%w: %s", match.ErrNotFound, matchID)
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", match.ErrRemoteRead, err)
	}
	if !rec.Joinable() {
		return false, fmt.Errorf("%w: status is %s", match.ErrNotJoinable, rec.Status)
	}

	now := time.Now().UTC()
	ready := match.StatusReady
	updated, err := e.deps.Store.UpdateWhereStatus(ctx, matchID, match.StatusWaiting, store.Fields{
		Status:       &ready,
		ParticipantB: &joiner,
		Scores:       map[match.Role]int{match.RoleB: 0},
		UpdatedAt:    &now,
	})
	if errors.Is(err, store.ErrStatusConflict) || errors.Is(err, store.ErrNotFound) {
		// Alguém entrou primeiro. O store é o ponto de serialização;
		// aceitamos a derrota sem mexer no estado local.
		return false, fmt.Errorf("%w: lost the join race", match.ErrNotJoinable)
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", match.ErrRemoteWrite, err)
	}

	e.do(func() {
		e.adopt(updated)
	})
	return true, nil
}

// StartMatch começa a partida carregada. Só vale a partir de 'ready';
// chamar em qualquer outro estado não transmite nada ao store e devolve
// ErrInvalidState para o log do chamador — a UI não deve regredir por isso.
//
// A política aqui é otimista: se a escrita remota falhar, o estado local
// avança para 'active' mesmo assim. Com os dois jogadores já pareados, vale
// mais manter a sessão jogável do que manter consistência estrita.
func (e *Engine) StartMatch() error {
	var snap *match.Match
	e.do(func() {
		snap = e.current.Clone()
	})
	if !snap.Loaded() {
		return fmt.Errorf("%w: no match loaded", match.ErrInvalidState)
	}
	if snap.Status != match.StatusReady {
		return fmt.Errorf("%w: cannot start from %s", match.ErrInvalidState, snap.Status)
	}

	now := time.Now().UTC()
	active := match.StatusActive
	fields := store.Fields{
		Status:    &active,
		StartedAt: &now,
		UpdatedAt: &now,
	}

	if snap.IsSolo {
		e.applyLocal(fields)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	updated, err := e.deps.Store.Update(ctx, snap.MatchID, fields)
	if err != nil {
		log.Printf("[Engine] Falha ao gravar start de %s, avançando localmente: %v", snap.MatchID, err)
		e.applyLocal(fields)
		return nil
	}

	e.do(func() {
		e.adopt(updated)
	})
	return nil
}

// UpdateScore atualiza o placar de um papel: primeiro local e na hora (a UI
// de quem pontuou nunca espera a rede para ver o próprio ponto), depois uma
// escrita remota best-effort em segundo plano. Falha remota é só log — o
// placar é reportado pelo cliente e a próxima escrita boa corrige.
func (e *Engine) UpdateScore(role match.Role, value int) error {
	if role != match.RoleA && role != match.RoleB {
		return fmt.Errorf("%w: unknown role %q", match.ErrValidation, role)
	}
	if value < 0 {
		return fmt.Errorf("%w: score cannot be negative", match.ErrValidation)
	}

	var snap *match.Match
	now := time.Now().UTC()
	e.do(func() {
		if !e.current.Loaded() {
			return
		}
		c := e.current.Clone()
		c.Scores[role] = value
		c.UpdatedAt = &now
		e.adopt(c)
		snap = c
	})
	if snap == nil {
		return fmt.Errorf("%w: no match loaded", match.ErrInvalidState)
	}
	if snap.IsSolo {
		return nil
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		_, err := e.deps.Store.Update(ctx, snap.MatchID, store.Fields{
			Scores:    map[match.Role]int{role: value},
			UpdatedAt: &now,
		})
		if err != nil {
			log.Printf("[Engine] Falha ao gravar placar de %s (seguindo sem retry): %v", snap.MatchID, err)
		}
	}()
	return nil
}

// EndMatch encerra a partida: o caminho normal é a partir de 'active', mas
// qualquer estado não terminal pode ser forçado a 'completed' como limpeza.
// Mesma política otimista do StartMatch na falha remota.
func (e *Engine) EndMatch() error {
	var snap *match.Match
	e.do(func() {
		snap = e.current.Clone()
	})
	if !snap.Loaded() {
		return fmt.Errorf("%w: no match loaded", match.ErrInvalidState)
	}
	if snap.Terminal() {
		return nil // já encerrada; encerrar de novo é inofensivo
	}

	now := time.Now().UTC()
	completed := match.StatusCompleted
	fields := store.Fields{
		Status:    &completed,
		EndedAt:   &now,
		UpdatedAt: &now,
	}

	if snap.IsSolo {
		e.applyLocal(fields)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	updated, err := e.deps.Store.Update(ctx, snap.MatchID, fields)
	if err != nil {
		log.Printf("[Engine] Falha ao gravar end de %s, avançando localmente: %v", snap.MatchID, err)
		e.applyLocal(fields)
		return nil
	}

	e.do(func() {
		e.adopt(updated)
	})
	return nil
}

// ResetMatch volta o engine ao estado vazio: derruba a inscrição, limpa o
// cache local e reinicializa a memória. Não toca o registro remoto, e
// chamar duas vezes seguidas dá no mesmo.
func (e *Engine) ResetMatch() {
	e.do(func() {
		e.dropSubscription()
		e.stopTimer()
		if e.deps.Cache != nil {
			if err := e.deps.Cache.Clear(); err != nil {
				log.Printf("[Engine] Falha ao limpar snapshot local: %v", err)
			}
		}
		e.current = match.NewIdle()
		if e.deps.OnChange != nil {
			e.deps.OnChange(e.current.Clone())
		}
	})
}

// applyLocal aplica campos por cima do estado atual sem passar pelo store —
// é o caminho das partidas solo e do avanço otimista pós-falha.
func (e *Engine) applyLocal(fields store.Fields) {
	e.do(func() {
		if !e.current.Loaded() {
			return
		}
		c := e.current.Clone()
		fields.Apply(c)
		e.adopt(c)
	})
}
