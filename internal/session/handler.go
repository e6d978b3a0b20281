package session

import (
	"encoding/json"
	"fmt"
	"time"

	"jumpclash/internal/engine"
	"jumpclash/internal/match"
	"jumpclash/internal/network"
	"jumpclash/internal/session/message"
	"jumpclash/internal/store"
)

// requestTimeout limita cada chamada remota disparada por um comando do
// cliente. A especificação original não tinha timeout nenhum — uma
// requisição pendurada deixava a UI pendente para sempre.
const requestTimeout = 10 * time.Second

// CommandHandlerFunc é a assinatura de todos os handlers de comando.
type CommandHandlerFunc func(h *GameHandler, session *PlayerSession, payload json.RawMessage)

// Deps são os colaboradores injetados no GameHandler e repassados a cada
// engine criado. NewCache fabrica o slot de snapshot de um perfil (sqlite
// em produção, memória no modo dev).
type Deps struct {
	Store     store.RecordStore
	Feed      store.ChangeFeed
	NewCache  func(profile string) store.SnapshotCache
	ShareBase string
}

// GameHandler implementa network.EventHandler. Ele gerencia as sessões dos
// jogadores conectados e roteia cada comando para o handler certo conforme
// o estado da sessão — um roteador por estado, como menus diferentes.
type GameHandler struct {
	deps     Deps
	sessions map[*network.Client]*PlayerSession

	setupRouter map[string]CommandHandlerFunc
	lobbyRouter map[string]CommandHandlerFunc
	gameRouter  map[string]CommandHandlerFunc
}

func NewGameHandler(deps Deps) *GameHandler {
	h := &GameHandler{
		deps:        deps,
		sessions:    make(map[*network.Client]*PlayerSession),
		setupRouter: make(map[string]CommandHandlerFunc),
		lobbyRouter: make(map[string]CommandHandlerFunc),
		gameRouter:  make(map[string]CommandHandlerFunc),
	}
	h.registerSetupHandlers()
	h.registerLobbyHandlers()
	h.registerGameHandlers()
	return h
}

func (h *GameHandler) registerSetupHandlers() {
	h.setupRouter["SET_PROFILE"] = handleSetProfile
}

func (h *GameHandler) registerLobbyHandlers() {
	h.lobbyRouter["CREATE_GAME"] = handleCreateGame
	h.lobbyRouter["CREATE_SOLO_GAME"] = handleCreateSoloGame
	h.lobbyRouter["JOIN_GAME"] = handleJoinGame
	h.lobbyRouter["FETCH_GAME"] = handleFetchGame
}

func (h *GameHandler) registerGameHandlers() {
	h.gameRouter["START_GAME"] = handleStartGame
	h.gameRouter["UPDATE_SCORE"] = handleUpdateScore
	h.gameRouter["END_GAME"] = handleEndGame
	h.gameRouter["VIEW_GAME"] = handleViewGame
	h.gameRouter["SHARE_LINK"] = handleShareLink
	h.gameRouter["RESET_GAME"] = handleResetGame
}

// --- Implementação da interface network.EventHandler ---

// OnConnect é chamado pela goroutine do network.Hub. É seguro modificar o
// estado do handler aqui.
func (h *GameHandler) OnConnect(c *network.Client) {
	session := NewPlayerSession(c)
	h.sessions[c] = session
	fmt.Printf("Session created for %s. Total sessions: %d\n", c.Conn().RemoteAddr(), len(h.sessions))

	c.Send() <- message.CreateSuccessResponse(state_SETUP,
		"Welcome to JumpClash!",
		"Set your wallet profile to enter the lobby.",
	)
	c.Send() <- message.CreatePromptInputMessage()
}

func (h *GameHandler) OnDisconnect(c *network.Client) {
	session, ok := h.sessions[c]
	if !ok {
		return
	}

	// O engine da sessão tem inscrição e timer vivos; fechar aqui evita
	// push para um cliente que já se foi. Fechar NÃO é reset: o snapshot
	// local fica para quando o jogador reconectar.
	if session.Engine != nil {
		session.Engine.Close()
	}

	delete(h.sessions, c)
	fmt.Printf("Session for %s removed. Total sessions: %d\n", c.Conn().RemoteAddr(), len(h.sessions))
}

// OnMessage é um despachante: escolhe o roteador pelo estado da sessão e
// delega para o handler do comando.
func (h *GameHandler) OnMessage(c *network.Client, msg network.Message) {
	session, ok := h.sessions[c]
	if !ok {
		return // mensagem de cliente sem sessão, ignora
	}

	var router map[string]CommandHandlerFunc
	switch session.State {
	case state_SETUP:
		router = h.setupRouter
	case state_LOBBY:
		router = h.lobbyRouter
	case state_IN_GAME:
		router = h.gameRouter
	default:
		message.SendErrorAndPrompt(session, "Invalid session state: %s", session.State)
		return
	}

	handler, found := router[msg.Type]
	if !found {
		message.SendErrorAndPrompt(session, "Unknown or invalid command for current state: %s", msg.Type)
		return
	}

	handler(h, session, msg.Payload)
}

// newEngine monta o engine de um perfil recém-definido, ligando o gancho de
// OnChange de volta para o websocket da sessão.
func (h *GameHandler) newEngine(session *PlayerSession) *engine.Engine {
	var cache store.SnapshotCache
	if h.deps.NewCache != nil {
		cache = h.deps.NewCache(session.Profile.Identity)
	}

	return engine.New(engine.Deps{
		Store:     h.deps.Store,
		Feed:      h.deps.Feed,
		Cache:     cache,
		ShareBase: h.deps.ShareBase,
		OnChange: func(rec *match.Match) {
			// Roda na goroutine do ator do engine: o envio precisa ser
			// não bloqueante. Se o buffer do cliente encheu, descartar é
			// seguro — o próximo estado substitui este por inteiro.
			select {
			case session.Client.Send() <- message.CreateGameState(rec):
			default:
			}
		},
	})
}
