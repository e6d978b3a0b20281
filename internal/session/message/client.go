package message

// Isso aqui são as mensagens que vão no sentido gateway -> cliente.

import (
	"jumpclash/internal/match"
	"jumpclash/internal/network"
)

// SuccessClientPayload carrega o estado explícito da sessão junto com a
// resposta, para o cliente trocar de menu sem adivinhar.
type SuccessClientPayload struct {
	State   string `json:"state"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorClientPayload define a estrutura de uma resposta de erro.
type ErrorClientPayload struct {
	Error string `json:"error"`
}

func CreateSuccessResponse(state, message string, data any) network.Message {
	return network.NewMessage("RESPONSE_SUCCESS", SuccessClientPayload{
		State:   state,
		Message: message,
		Data:    data,
	})
}

func CreateErrorResponse(errorMsg string) network.Message {
	return network.NewMessage("RESPONSE_ERROR", ErrorClientPayload{Error: errorMsg})
}

// CreateGameState empacota o registro inteiro da partida. É a mensagem que
// o gateway empurra toda vez que o engine adota um estado novo — o
// "re-render" do cliente.
func CreateGameState(rec *match.Match) network.Message {
	return network.NewMessage("GAME_STATE", rec)
}

// CreatePromptInputMessage é a mensagem de controle dedicada: o único
// trabalho dela é dizer ao cliente para mostrar um prompt.
func CreatePromptInputMessage() network.Message {
	return network.NewMessage("PROMPT_INPUT", nil)
}
