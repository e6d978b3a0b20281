package network

import (
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Tempo máximo para uma escrita na conexão.
	writeWait = 10 * time.Second

	// Tempo máximo esperando um pong do cliente.
	pongWait = 60 * time.Second

	// Frequência dos pings. Precisa ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client é um jogador conectado, do ponto de vista do gateway: a conexão
// websocket e os canais de comunicação em volta dela.
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	// Canal bufferizado de saída. O handler de sessão escreve aqui e o
	// writeLoop escoa para a rede; o buffer evita travar o Hub quando um
	// cliente está lento.
	send chan Message
}

// Conn expõe a net.Conn subjacente (útil para logar o endereço do jogador).
func (c *Client) Conn() net.Conn {
	return c.conn.UnderlyingConn()
}

// Send é o único jeito seguro de mandar uma mensagem para este cliente.
// Nunca escreva direto na conexão fora do writeLoop.
func (c *Client) Send() chan<- Message {
	return c.send
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		// Cada pong renova o deadline e mantém a conexão viva.
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("Unexpected close from %s: %v\n", c.conn.RemoteAddr(), err)
			}
			break
		}

		c.hub.incoming <- clientMessage{client: c, msg: msg}
	}
}

// writeLoop escoa o canal send para a conexão e mantém o ping periódico.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// O Hub fechou o canal: o cliente foi desregistrado.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				fmt.Printf("Write error for %s: %v\n", c.conn.RemoteAddr(), err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // conexão morta
			}
		}
	}
}
