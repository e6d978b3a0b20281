package network

// EventHandler é a interface que conecta a camada de rede com a lógica de
// sessão. Quem implementa isso é o pacote session; a rede não sabe nada de
// partidas, só entrega eventos.
//
// Os três métodos são sempre chamados pela goroutine do Hub, então é seguro
// mexer em estado compartilhado dentro deles sem lock.
type EventHandler interface {
	OnConnect(c *Client)
	OnDisconnect(c *Client)
	OnMessage(c *Client, msg Message)
}
