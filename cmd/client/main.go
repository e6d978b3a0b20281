package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"jumpclash/internal/network"
)

// Estados espelhados do servidor. O cliente só os usa para escolher qual
// menu imprimir; quem manda no estado de verdade é a sessão do gateway.
const (
	StateSetup  = "Setup"
	StateLobby  = "Lobby"
	StateInGame = "InGame"
)

var clientState = StateSetup

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// Lista de gateways para failover. Sobrescrevível por variável de
	// ambiente: GATEWAY_ADDRS="host1:8080,host2:8080"
	gatewayAddrs := []string{
		"localhost:8080",
	}
	if addrsEnv := os.Getenv("GATEWAY_ADDRS"); addrsEnv != "" {
		gatewayAddrs = strings.Split(addrsEnv, ",")
	}

	var conn *websocket.Conn
	var err error

	// Tenta conectar em cada endereço da lista até ter sucesso.
	for _, addr := range gatewayAddrs {
		u := url.URL{Scheme: "ws", Host: strings.TrimSpace(addr), Path: "/ws"}
		log.Printf("Tentando conectar ao gateway em %s", u.String())

		var resp *http.Response
		conn, resp, err = websocket.DefaultDialer.Dial(u.String(), nil)
		if err == nil {
			log.Println("Conexão WebSocket bem-sucedida!")
			break
		}

		log.Printf("AVISO: Falha ao conectar a %s: %v", addr, err)
		if resp != nil {
			log.Printf("AVISO: Status da resposta recebida: %s", resp.Status)
		}
	}

	if conn == nil {
		log.Fatalf("Não foi possível conectar a nenhum gateway disponível. Encerrando.")
	}
	defer conn.Close()

	done := make(chan struct{})
	go readLoop(conn, done)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			handleUserInput(conn, scanner, scanner.Text())
		}
	}()

	select {
	case <-done:
		log.Println("Desconectado do servidor.")
	case <-interrupt:
		log.Println("Interrupção recebida, fechando conexão.")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

func readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var msg network.Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Println("\nConexão fechada normalmente.")
			} else {
				log.Printf("\nErro de leitura: %v", err)
			}
			break
		}

		if msg.Type == "RESPONSE_SUCCESS" {
			var payload struct {
				State string `json:"state"`
			}
			json.Unmarshal(msg.Payload, &payload)
			if payload.State != "" {
				updateClientState(payload.State)
			}
		}

		printServerMessage(&msg)

		if msg.Type == "PROMPT_INPUT" {
			printPrompt()
		}
	}
}

func updateClientState(newState string) {
	switch newState {
	case "setup":
		clientState = StateSetup
	case "lobby":
		clientState = StateLobby
	case "in-game":
		clientState = StateInGame
	default:
		log.Printf("Alerta: Servidor enviou estado desconhecido ('%s').\n", newState)
	}
}

func handleUserInput(conn *websocket.Conn, scanner *bufio.Scanner, userInput string) {
	switch clientState {
	case StateSetup:
		handleSetupInput(conn, scanner, userInput)
	case StateLobby:
		handleLobbyInput(conn, scanner, userInput)
	case StateInGame:
		handleInGameInput(conn, scanner, userInput)
	}
}

func handleSetupInput(conn *websocket.Conn, scanner *bufio.Scanner, choice string) {
	if choice != "1" {
		fmt.Println("Opção inválida.")
		printPrompt()
		return
	}

	identity := promptForString(scanner, "Endereço da carteira (0x...): ")
	displayName := promptForString(scanner, "Nome de exibição (vazio usa o endereço abreviado): ")

	payload, _ := json.Marshal(map[string]string{
		"identity":    identity,
		"displayName": displayName,
	})
	send(conn, network.Message{Type: "SET_PROFILE", Payload: payload})
}

func handleLobbyInput(conn *websocket.Conn, scanner *bufio.Scanner, choice string) {
	var msg network.Message
	shouldSend := true

	switch choice {
	case "1":
		seconds, err := promptForInt(scanner, "Duração da partida em segundos (ex: 60): ")
		if err != nil {
			fmt.Println(err)
			shouldSend = false
		} else {
			payload, _ := json.Marshal(map[string]int{"timerSeconds": seconds})
			msg = network.Message{Type: "CREATE_GAME", Payload: payload}
		}
	case "2":
		msg.Type = "CREATE_SOLO_GAME"
	case "3":
		id := promptForString(scanner, "ID da partida (do link de convite): ")
		payload, _ := json.Marshal(map[string]string{"matchId": id})
		msg = network.Message{Type: "JOIN_GAME", Payload: payload}
	case "4":
		id := promptForString(scanner, "ID da partida: ")
		payload, _ := json.Marshal(map[string]string{"matchId": id})
		msg = network.Message{Type: "FETCH_GAME", Payload: payload}
	default:
		fmt.Println("Opção inválida.")
		shouldSend = false
	}

	if shouldSend {
		send(conn, msg)
	} else {
		printPrompt()
	}
}

func handleInGameInput(conn *websocket.Conn, scanner *bufio.Scanner, choice string) {
	var msg network.Message
	shouldSend := true

	switch choice {
	case "1":
		msg.Type = "START_GAME"
	case "2":
		value, err := promptForInt(scanner, "Seu placar atual: ")
		if err != nil {
			fmt.Println(err)
			shouldSend = false
		} else {
			payload, _ := json.Marshal(map[string]int{"value": value})
			msg = network.Message{Type: "UPDATE_SCORE", Payload: payload}
		}
	case "3":
		msg.Type = "END_GAME"
	case "4":
		msg.Type = "VIEW_GAME"
	case "5":
		msg.Type = "SHARE_LINK"
	case "6":
		msg.Type = "RESET_GAME"
	default:
		fmt.Println("Opção inválida.")
		shouldSend = false
	}

	if shouldSend {
		send(conn, msg)
	} else {
		printPrompt()
	}
}

func send(conn *websocket.Conn, msg network.Message) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Erro ao enviar mensagem: %v", err)
	}
}

func printServerMessage(msg *network.Message) {
	switch msg.Type {
	case "PROMPT_INPUT":
		return

	case "GAME_STATE":
		// Push do servidor: o estado da partida mudou do outro lado.
		var pretty map[string]any
		if json.Unmarshal(msg.Payload, &pretty) == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Printf("\n[Atualização da partida]\n%s\n", string(out))
		}
		printPrompt()
		return
	}

	var successPayload struct {
		Message string `json:"message"`
		Data    any    `json:"data"`
	}
	var errorPayload struct {
		Error string `json:"error"`
	}

	if msg.Type == "RESPONSE_SUCCESS" && json.Unmarshal(msg.Payload, &successPayload) == nil {
		fmt.Printf("\n%s\n", successPayload.Message)

		if successPayload.Data != nil {
			if strData, ok := successPayload.Data.(string); ok {
				fmt.Println(strData)
			} else {
				prettyJSON, err := json.MarshalIndent(successPayload.Data, "", "  ")
				if err == nil {
					fmt.Println(string(prettyJSON))
				} else {
					fmt.Printf("%v\n", successPayload.Data)
				}
			}
		}
	} else if msg.Type == "RESPONSE_ERROR" && json.Unmarshal(msg.Payload, &errorPayload) == nil {
		fmt.Printf("\nErro: %s\n", errorPayload.Error)
	} else {
		fmt.Printf("\nInfo (%s): %s\n", msg.Type, string(msg.Payload))
	}
}

func printPrompt() {
	var prompt string
	switch clientState {
	case StateSetup:
		prompt = `
--- JumpClash (Setup) ---
1. Definir perfil da carteira
-------------------------

(Setup) Digite uma opção: `
	case StateLobby:
		prompt = `
--- JumpClash (Lobby) ---
1. Criar partida
2. Jogar sozinho
3. Entrar numa partida
4. Consultar partida
-------------------------

(Lobby) Digite uma opção: `
	case StateInGame:
		prompt = `
--- JumpClash (Em Jogo) ---
1. Começar
2. Atualizar placar
3. Encerrar
4. Ver estado da partida
5. Link de convite
6. Sair da partida (reset local)
---------------------------

(Em Jogo) Digite uma opção: `
	}
	fmt.Print(prompt)
}

func promptForString(scanner *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

func promptForInt(scanner *bufio.Scanner, prompt string) (int, error) {
	fmt.Print(prompt)
	scanner.Scan()
	num, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return 0, fmt.Errorf("entrada inválida. Por favor, digite um número")
	}
	return num, nil
}
