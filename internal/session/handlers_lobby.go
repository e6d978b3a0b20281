package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"jumpclash/internal/match"
	"jumpclash/internal/session/message"
)

// Handlers do lobby: nenhuma partida carregada ainda.

// handleCreateGame cria uma partida 1v1 e devolve o link de convite.
func handleCreateGame(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	var req struct {
		TimerSeconds *int `json:"timerSeconds"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.TimerSeconds == nil {
		message.SendErrorAndPrompt(session, "Invalid payload: 'timerSeconds' field is required and must be a number.")
		return
	}

	if *req.TimerSeconds <= 0 || *req.TimerSeconds > 3600 {
		message.SendErrorAndPrompt(session, "Invalid timer: must be between 1 and 3600 seconds.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	matchID, err := session.Engine.CreateMatch(ctx, session.Profile, *req.TimerSeconds)
	if err != nil {
		if errors.Is(err, match.ErrInvalidState) {
			message.SendErrorAndPrompt(session, "You already have a game loaded. Reset it first.")
			return
		}
		fmt.Printf("Create failed for %s: %v\n", session.Profile.Identity, err)
		message.SendErrorAndPrompt(session, "Failed to create game. Please try again.")
		return
	}

	session.State = state_IN_GAME
	link := session.Engine.ShareLink()
	message.SendSuccessAndPrompt(session, session.State,
		"Game created! Share this link with your opponent:\n"+link,
		map[string]string{"matchId": matchID, "shareLink": link},
	)
}

// handleCreateSoloGame cria uma partida local de treino: sem backend, sem
// timer, sem adversário.
func handleCreateSoloGame(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	matchID, err := session.Engine.CreateSoloMatch(session.Profile)
	if err != nil {
		if errors.Is(err, match.ErrInvalidState) {
			message.SendErrorAndPrompt(session, "You already have a game loaded. Reset it first.")
			return
		}
		message.SendErrorAndPrompt(session, "Failed to start solo game: %v", err)
		return
	}

	session.State = state_IN_GAME
	message.SendSuccessAndPrompt(session, session.State,
		"Solo game started ("+matchID+"). Jump away — no timer, no pressure.",
		nil,
	)
}

// handleJoinGame entra numa partida pelo id do convite. As três mensagens
// de erro daqui são as únicas que o jogador vê no fluxo de join; o resto é
// detalhe de log.
func handleJoinGame(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	var req struct {
		MatchID string `json:"matchId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.MatchID == "" {
		message.SendErrorAndPrompt(session, "Invalid payload: 'matchId' field is required.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	joined, err := session.Engine.JoinMatch(ctx, req.MatchID, session.Profile)
	if err != nil {
		// Perder a corrida de join é esperado; a distinção fica no log.
		fmt.Printf("Join of %s failed for %s: %v\n", req.MatchID, session.Profile.Identity, err)
	}
	if !joined {
		switch {
		case errors.Is(err, match.ErrNotFound):
			message.SendErrorAndPrompt(session, "Game not found.")
		case errors.Is(err, match.ErrNotJoinable):
			message.SendErrorAndPrompt(session, "Game is no longer accepting players.")
		default:
			message.SendErrorAndPrompt(session, "Failed to join game.")
		}
		return
	}

	session.State = state_IN_GAME
	message.SendSuccessAndPrompt(session, session.State,
		"You joined the game! Waiting for the host to start.",
		session.Engine.Snapshot(),
	)
}

// handleFetchGame faz a leitura pontual de uma partida, sem entrar nela.
// É o que o convidado usa para espiar o convite antes de aceitar.
func handleFetchGame(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	var req struct {
		MatchID string `json:"matchId"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.MatchID == "" {
		message.SendErrorAndPrompt(session, "Invalid payload: 'matchId' field is required.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	rec, err := session.Engine.FetchMatch(ctx, req.MatchID)
	if err != nil {
		// "Não encontrado" e "backend fora" terminam os dois aqui, mas o
		// log carrega a diferença para o diagnóstico.
		fmt.Printf("Fetch of %s failed: %v\n", req.MatchID, err)
	}
	if rec == nil {
		message.SendErrorAndPrompt(session, "Game not found.")
		return
	}

	session.State = state_IN_GAME
	message.SendSuccessAndPrompt(session, session.State, "Game loaded.", rec)
}
