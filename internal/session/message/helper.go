package message

import (
	"fmt"

	"jumpclash/internal/network"
)

// MessageSender é qualquer coisa que pode receber uma mensagem. Desacopla
// este pacote das implementações concretas (PlayerSession, network.Client).
type MessageSender interface {
	Send() chan<- network.Message
}

// SendError envia apenas uma mensagem de erro para o cliente.
func SendError(sender MessageSender, format string, args ...interface{}) {
	sender.Send() <- CreateErrorResponse(fmt.Sprintf(format, args...))
}

// SendErrorAndPrompt envia um erro seguido do prompt de input.
func SendErrorAndPrompt(sender MessageSender, format string, args ...interface{}) {
	sender.Send() <- CreateErrorResponse(fmt.Sprintf(format, args...))
	sender.Send() <- CreatePromptInputMessage()
}

// SendSuccess envia apenas uma mensagem de sucesso para o cliente.
func SendSuccess(sender MessageSender, state, message string, data any) {
	sender.Send() <- CreateSuccessResponse(state, message, data)
}

// SendSuccessAndPrompt envia um sucesso seguido do prompt de input.
func SendSuccessAndPrompt(sender MessageSender, state, message string, data any) {
	sender.Send() <- CreateSuccessResponse(state, message, data)
	sender.Send() <- CreatePromptInputMessage()
}
