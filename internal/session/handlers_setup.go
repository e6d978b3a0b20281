package session

import (
	"encoding/json"
	"strings"

	"jumpclash/internal/match"
	"jumpclash/internal/session/message"
	"jumpclash/internal/wallet"
)

// handleSetProfile define a identidade do jogador e cria o engine da
// sessão. A identidade é o endereço da carteira — é ele que diferencia o
// criador do convidado dentro do registro da partida.
func handleSetProfile(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	var req struct {
		Identity    string `json:"identity"`
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		message.SendErrorAndPrompt(session, "Invalid payload: 'identity' and 'displayName' are required.")
		return
	}

	identity := strings.TrimSpace(req.Identity)
	if !wallet.IsValidAddress(identity) {
		message.SendErrorAndPrompt(session, "Invalid wallet address: %s", req.Identity)
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = wallet.ShortAddress(identity)
	}

	session.Profile = match.Participant{
		Identity:    identity,
		DisplayName: displayName,
	}
	session.Engine = h.newEngine(session)

	// O engine pode ter semeado uma partida do snapshot local (cliente que
	// recarregou); nesse caso o jogador volta direto para ela.
	if session.Engine.Snapshot().Loaded() {
		session.State = state_IN_GAME
		message.SendSuccessAndPrompt(session, session.State,
			"Welcome back! Your last game was restored from this device.",
			session.Engine.Snapshot(),
		)
		return
	}

	session.State = state_LOBBY
	message.SendSuccessAndPrompt(session, session.State,
		"Profile set: "+displayName+" ("+wallet.ShortAddress(identity)+"). You are in the lobby.",
		nil,
	)
}
