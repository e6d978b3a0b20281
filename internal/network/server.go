package network

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server é o servidor websocket do gateway: promove as conexões HTTP e
// entrega os clientes ao Hub.
type Server struct {
	hub *Hub
}

var upgrader = websocket.Upgrader{
	// Em desenvolvimento aceitamos qualquer origem; o controle fino fica
	// no proxy da frente.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewServer recebe o EventHandler com a lógica de sessão — este é o ponto
// de injeção: a rede não conhece o jogo.
func NewServer(handler EventHandler) *Server {
	return &Server{
		hub: NewHub(handler),
	}
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("Upgrade error: %v\n", err)
		return
	}

	client := &Client{
		conn: conn,
		hub:  s.hub,
		send: make(chan Message, 256),
	}

	client.hub.register <- client

	go client.writeLoop()
	go client.readLoop()
}

// Listen sobe o Hub e o servidor HTTP com a rota /ws. Bloqueia.
func (s *Server) Listen(address string) error {
	go s.hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.wsHandler)

	fmt.Printf("JumpClash gateway listening on ws://%s/ws\n", address)
	return http.ListenAndServe(address, mux)
}
