// O pacote snapshot guarda a última partida conhecida de cada perfil num
// banco sqlite local. É o equivalente do localStorage do cliente web: um
// slot durável por perfil, lido na subida para o jogador não perder o lugar
// quando recarrega ou quando o backend está fora do ar.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"jumpclash/internal/match"
)

// DB é o banco sqlite compartilhado; cada perfil enxerga só o próprio slot.
type DB struct {
	db *sql.DB
}

// Open abre (criando, se preciso) o banco de snapshots.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to snapshot database: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run snapshot migrations: %w", err)
	}
	return d, nil
}

func (d *DB) migrate() error {
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		profile  TEXT PRIMARY KEY,
		data     TEXT NOT NULL,
		saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Ping existe para o health check do gateway.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// Profile devolve a visão de slot único de um perfil (a identidade do
// jogador). É essa visão que o engine recebe como SnapshotCache.
func (d *DB) Profile(key string) *Cache {
	return &Cache{db: d.db, profile: key}
}

// Cache implementa store.SnapshotCache sobre uma linha do banco.
type Cache struct {
	db      *sql.DB
	profile string
}

func (c *Cache) Get() (*match.Match, error) {
	var data string
	err := c.db.QueryRow(
		`SELECT data FROM snapshots WHERE profile = ?`, c.profile,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var rec match.Match
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		// Snapshot corrompido não pode travar a subida do engine;
		// tratamos como slot vazio.
		return nil, fmt.Errorf("corrupted snapshot for %s: %w", c.profile, err)
	}
	return &rec, nil
}

func (c *Cache) Set(rec *match.Match) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		`INSERT INTO snapshots (profile, data) VALUES (?, ?)
		 ON CONFLICT(profile) DO UPDATE SET data = excluded.data, saved_at = CURRENT_TIMESTAMP`,
		c.profile, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM snapshots WHERE profile = ?`, c.profile)
	if err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
