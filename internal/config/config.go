package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config concentra toda a configuração do gateway num lugar só.
type Config struct {
	// Modo de desenvolvimento: tudo em memória, sem NATS/Consul/disco.
	DevMode bool

	// NATS (store de partidas + feed de mudanças)
	NatsURL  string
	KVBucket string

	// Consul (descoberta e registro)
	ConsulAddr string

	// Rede
	ListenAddr string
	HealthPort int

	// Snapshots locais (sqlite)
	SnapshotDBPath string

	// Base dos links de convite, ex.: https://jumpclash.xyz
	ShareBaseURL string
}

// Load lê a configuração das variáveis de ambiente. Um arquivo .env, se
// existir, é carregado antes — conveniente em desenvolvimento, inofensivo
// em produção.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DevMode:        os.Getenv("DEV_MODE") == "true",
		NatsURL:        os.Getenv("NATS_URL"),
		KVBucket:       getEnvOrDefault("KV_BUCKET", "jumpclash-matches"),
		ConsulAddr:     os.Getenv("CONSUL_HTTP_ADDR"),
		ListenAddr:     getEnvOrDefault("LISTEN_ADDR", ":8080"),
		SnapshotDBPath: getEnvOrDefault("SNAPSHOT_DB_PATH", "./data/snapshots.db"),
		ShareBaseURL:   getEnvOrDefault("SHARE_BASE_URL", "http://localhost:8080"),
	}

	healthStr := getEnvOrDefault("HEALTH_PORT", "8081")
	healthPort, err := strconv.Atoi(healthStr)
	if err != nil {
		return nil, fmt.Errorf("HEALTH_PORT inválido: %w", err)
	}
	cfg.HealthPort = healthPort

	// Fora do modo dev, o gateway precisa de um store remoto: ou um NATS_URL
	// explícito, ou um Consul para descobrir um.
	if !cfg.DevMode && cfg.NatsURL == "" && cfg.ConsulAddr == "" {
		return nil, fmt.Errorf("defina NATS_URL ou CONSUL_HTTP_ADDR (ou DEV_MODE=true)")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
