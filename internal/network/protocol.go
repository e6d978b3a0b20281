package network

import "encoding/json"

// Message é o envelope padrão de toda a comunicação entre o cliente e o
// gateway. O tipo serve para roteamento; o payload fica em JSON bruto para
// ser decodificado só por quem conhece o comando.
type Message struct {
	Type    string          `json:"type"`    // Ex: "CREATE_GAME", "GAME_STATE"
	Payload json.RawMessage `json:"payload"` // Dados específicos do comando.
}

// MaxMessageSize limita o tamanho de uma mensagem vinda do cliente. Nenhum
// comando do JumpClash chega perto disso; acima é comportamento suspeito.
const MaxMessageSize = 64 * 1024

// NewMessage monta um envelope serializando o payload informado.
// Payload nil gera uma mensagem só de tipo.
func NewMessage(msgType string, payload any) Message {
	if payload == nil {
		return Message{Type: msgType}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads daqui de dentro são sempre structs serializáveis;
		// se isso falhar é bug nosso, não do cliente.
		return Message{Type: msgType}
	}
	return Message{Type: msgType, Payload: data}
}
