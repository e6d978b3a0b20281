package session

import (
	"jumpclash/internal/engine"
	"jumpclash/internal/match"
	"jumpclash/internal/network"
)

// Constantes de estado da sessão, para evitar erros de digitação nos
// roteadores e no cliente.
const (
	state_SETUP   = "setup"   // Conectado, mas ainda sem perfil de carteira.
	state_LOBBY   = "lobby"   // Perfil pronto, nenhuma partida carregada.
	state_IN_GAME = "in-game" // Uma partida está carregada no engine.
)

// PlayerSession representa um jogador único conectado ao gateway. Cada
// sessão é dona do seu próprio engine de sincronização — nada de estado de
// partida compartilhado entre sessões fora do store.
type PlayerSession struct {
	Client  *network.Client
	Profile match.Participant
	Engine  *engine.Engine

	State string
}

// NewPlayerSession cria a sessão no estado de setup. O engine só nasce
// quando o jogador define o perfil, porque o slot de snapshot é por perfil.
func NewPlayerSession(client *network.Client) *PlayerSession {
	return &PlayerSession{
		Client: client,
		State:  state_SETUP,
	}
}

// Send permite usar a sessão direto com os helpers do pacote message.
func (s *PlayerSession) Send() chan<- network.Message {
	return s.Client.Send()
}

// Role resolve o papel (A ou B) desta sessão na partida carregada.
func (s *PlayerSession) Role() (match.Role, bool) {
	if s.Engine == nil {
		return "", false
	}
	return s.Engine.Snapshot().RoleOf(s.Profile.Identity)
}
