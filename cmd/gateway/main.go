package main

import (
	"fmt"
	"log"
	"net/http"

	"jumpclash/internal/cluster"
	"jumpclash/internal/config"
	"jumpclash/internal/network"
	"jumpclash/internal/session"
	"jumpclash/internal/store"
	"jumpclash/internal/store/memory"
	"jumpclash/internal/store/natskv"
	"jumpclash/internal/store/snapshot"
)

const serviceName = "jumpclash-gateway"

func main() {
	// 1. CARREGA A CONFIGURAÇÃO
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fatal: Falha ao carregar configuração: %v", err)
	}
	log.Printf("[Main] Configuração carregada: Listen=%s, HealthPort=%d, DevMode=%v",
		cfg.ListenAddr, cfg.HealthPort, cfg.DevMode)

	health := cluster.NewHealthAggregator()

	// 2. MONTA AS DEPENDÊNCIAS (store, feed e snapshots)
	var deps session.Deps
	deps.ShareBase = cfg.ShareBaseURL

	if cfg.DevMode {
		// Modo dev: tudo em memória. Sem NATS, sem Consul, sem disco — mas
		// o mesmo contrato de store que a produção usa.
		log.Println("[Main] DEV_MODE ativo: usando store e snapshots em memória.")
		mem := memory.NewStore()
		deps.Store = mem
		deps.Feed = mem
		deps.NewCache = func(profile string) store.SnapshotCache {
			return memory.NewCache()
		}
	} else {
		natsURL := cfg.NatsURL
		if natsURL == "" {
			// Sem endereço explícito, pergunta ao Consul onde está o NATS.
			addr := cluster.DiscoverService("nats", cfg.ConsulAddr)
			if addr == "" {
				log.Fatalf("Fatal: NATS_URL vazio e nenhum serviço 'nats' saudável no Consul.")
			}
			natsURL = "nats://" + addr
		}

		nc, err := natskv.Connect(natsURL)
		if err != nil {
			log.Fatalf("Fatal: Falha ao conectar ao NATS: %v", err)
		}

		kvStore, err := natskv.Open(nc, cfg.KVBucket)
		if err != nil {
			log.Fatalf("Fatal: Falha ao abrir o bucket de partidas: %v", err)
		}
		deps.Store = kvStore
		deps.Feed = kvStore

		snapDB, err := snapshot.Open(cfg.SnapshotDBPath)
		if err != nil {
			log.Fatalf("Fatal: Falha ao abrir o banco de snapshots: %v", err)
		}
		deps.NewCache = func(profile string) store.SnapshotCache {
			return snapDB.Profile(profile)
		}

		health.AddCheck("nats", func() error {
			if !nc.IsConnected() {
				return fmt.Errorf("desconectado do NATS")
			}
			return nil
		})
		health.AddCheck("snapshots", snapDB.Ping)
	}

	// 3. SOBE O ENDPOINT DE SAÚDE NUMA PORTA PRÓPRIA
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", health.Handler())
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HealthPort)
		log.Printf("[Main] Health check disponível em http://0.0.0.0%s/health", addr)
		if err := http.ListenAndServe(addr, healthMux); err != nil {
			log.Printf("ERRO: servidor de health check caiu: %v", err)
		}
	}()

	// 4. REGISTRA O SERVIÇO NO CONSUL (se houver um)
	if !cfg.DevMode && cfg.ConsulAddr != "" {
		log.Printf("[Main] Registrando serviço '%s' no Consul...", serviceName)
		servicePort := portOf(cfg.ListenAddr)
		if err := cluster.RegisterServiceInConsul(serviceName, servicePort, cfg.HealthPort, cfg.ConsulAddr); err != nil {
			log.Fatalf("Fatal: Falha ao registrar serviço no Consul: %v", err)
		}
	}

	// 5. INICIA O SERVIDOR PRINCIPAL
	gameHandler := session.NewGameHandler(deps)
	server := network.NewServer(gameHandler)

	log.Printf("[Main] Gateway iniciado em %s.", cfg.ListenAddr)
	if err := server.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("Falha fatal ao iniciar o servidor de rede: %v", err)
	}
}

// portOf extrai a porta numérica de um endereço tipo ":8080" ou "0.0.0.0:8080".
func portOf(addr string) int {
	port := 0
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			fmt.Sscanf(addr[i+1:], "%d", &port)
			break
		}
	}
	return port
}
