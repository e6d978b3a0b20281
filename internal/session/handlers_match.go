package session

import (
	"encoding/json"
	"fmt"

	"jumpclash/internal/session/message"
)

// Handlers com uma partida carregada no engine.

// handleStartGame começa a partida. Fora do estado 'ready' o engine não
// transmite nada e a UI não regride: o jogador só recebe o aviso.
func handleStartGame(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	if err := session.Engine.StartMatch(); err != nil {
		fmt.Printf("Start rejected for %s: %v\n", session.Profile.Identity, err)
		message.SendErrorAndPrompt(session, "The game is not ready to start yet.")
		return
	}

	message.SendSuccessAndPrompt(session, session.State,
		"Game on! Jump!",
		session.Engine.Snapshot(),
	)
}

// handleUpdateScore grava o placar DESTE jogador. O papel (A ou B) sai da
// identidade da sessão — ninguém escreve o placar do adversário.
func handleUpdateScore(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	var req struct {
		Value *int `json:"value"`
	}
	if err := json.Unmarshal(payload, &req); err != nil || req.Value == nil {
		message.SendErrorAndPrompt(session, "Invalid payload: 'value' field is required and must be a number.")
		return
	}

	role, ok := session.Role()
	if !ok {
		message.SendErrorAndPrompt(session, "You are not a participant of this game.")
		return
	}

	if err := session.Engine.UpdateScore(role, *req.Value); err != nil {
		message.SendErrorAndPrompt(session, "Failed to update score: %v", err)
		return
	}

	// A resposta sai na hora: o placar local já foi atualizado, a escrita
	// remota segue em segundo plano.
	snap := session.Engine.Snapshot()
	message.SendSuccessAndPrompt(session, session.State,
		fmt.Sprintf("Score updated: you %d x %d opponent.",
			snap.ScoreOf(role), snap.OpponentScore(session.Profile.Identity)),
		nil,
	)
}

// handleEndGame encerra a partida atual (ou força o encerramento como
// limpeza, se ela nem chegou a começar).
func handleEndGame(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	if err := session.Engine.EndMatch(); err != nil {
		fmt.Printf("End rejected for %s: %v\n", session.Profile.Identity, err)
		message.SendErrorAndPrompt(session, "There is no game to end.")
		return
	}

	snap := session.Engine.Snapshot()
	message.SendSuccessAndPrompt(session, session.State, "Game over!", snap)
}

// handleViewGame devolve o registro completo da partida atual.
func handleViewGame(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	message.SendSuccessAndPrompt(session, session.State,
		"Current game state:",
		session.Engine.Snapshot(),
	)
}

// handleShareLink reimprime o link de convite.
func handleShareLink(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	link := session.Engine.ShareLink()
	if link == "" {
		message.SendErrorAndPrompt(session, "This game has no invite link.")
		return
	}
	message.SendSuccessAndPrompt(session, session.State,
		"Invite link:\n"+link,
		map[string]string{"shareLink": link},
	)
}

// handleResetGame limpa o estado local e volta ao lobby. Não toca o
// registro remoto: o adversário continua vendo a partida dele.
func handleResetGame(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	session.Engine.ResetMatch()
	session.State = state_LOBBY
	message.SendSuccessAndPrompt(session, session.State,
		"Local game state cleared. You are back in the lobby.",
		nil,
	)
}
