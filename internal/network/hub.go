package network

// clientMessage empacota uma mensagem junto com o cliente que a enviou.
// O Hub precisa dos dois para repassar ao EventHandler.
type clientMessage struct {
	client *Client
	msg    Message
}

// Hub mantém o conjunto de clientes ativos e roteia eventos para o handler.
// Todo o estado dele é acessado SOMENTE pela goroutine do Run: registrar,
// desregistrar e entregar mensagens passam pelos canais abaixo.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage

	handler EventHandler
}

func NewHub(handler EventHandler) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		handler:    handler,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// O handler precisa saber da saída ANTES do canal fechar:
				// a sessão ainda pode estar empurrando estado para ele.
				h.handler.OnDisconnect(client)
				// Fechar o canal send é o sinal para o writeLoop daquele
				// cliente parar. Só o Hub pode fazer isso.
				close(client.send)
			}

		case clientMsg := <-h.incoming:
			// O Hub não olha o conteúdo; quem entende de comandos é o
			// handler de sessão.
			h.handler.OnMessage(clientMsg.client, clientMsg.msg)
		}
	}
}
