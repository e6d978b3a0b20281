// O pacote natskv implementa o RecordStore e o ChangeFeed por cima de um
// bucket KV do NATS JetStream. O mapeamento é direto:
//
//	Insert            -> kv.Create (falha se a chave já existe)
//	Get               -> kv.Get
//	Update            -> leitura + kv.Update(rev), com retry de CAS
//	UpdateWhereStatus -> uma tentativa de CAS condicionada ao status atual
//	Subscribe         -> kv.Watch na chave da partida
//
// A revisão do KV é o que serializa a corrida de join: duas escritas sobre
// a mesma revisão nunca são aceitas as duas.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"jumpclash/internal/match"
	"jumpclash/internal/store"
)

const (
	// DefaultBucket é o bucket KV onde as partidas vivem.
	DefaultBucket = "jumpclash-matches"

	// Quantas vezes o Update (last-write-wins) tenta de novo depois de
	// perder um CAS para uma escrita concorrente.
	casRetries = 5
)

// Connect abre a conexão com o NATS, tentando de novo por um tempo antes de
// desistir — no docker compose o backend pode subir depois do gateway.
func Connect(url string) (*nats.Conn, error) {
	var nc *nats.Conn
	var err error

	log.Printf("[NatsKV] Conectando ao NATS em %s...", url)
	for i := 0; i < 10; i++ {
		nc, err = nats.Connect(url,
			nats.Name("jumpclash-gateway"),
			nats.Timeout(5*time.Second),
			nats.MaxReconnects(-1),
		)
		if err == nil {
			return nc, nil
		}
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("timeout connecting to NATS at %s: %w", url, err)
}

// Store fala com um bucket KV já aberto.
type Store struct {
	kv nats.KeyValue
}

// Open abre (ou cria, na primeira vez) o bucket de partidas.
func Open(nc *nats.Conn, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "JumpClash match records",
			History:     1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open bucket %q: %w", bucket, err)
	}

	return &Store{kv: kv}, nil
}

func (s *Store) Insert(ctx context.Context, rec *match.Match) (*match.Match, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	if _, err := s.kv.Create(rec.MatchID, data); err != nil {
		if errors.Is(err, nats.ErrKeyExists) {
			return nil, store.ErrAlreadyExists
		}
		return nil, err
	}
	return rec.Clone(), nil
}

func (s *Store) Get(ctx context.Context, matchID string) (*match.Match, error) {
	entry, err := s.kv.Get(matchID)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return decode(entry.Value())
}

// Update é a escrita last-write-wins por campo: lê a linha, aplica os
// campos e regrava sobre a mesma revisão. Se outra escrita chegou antes,
// repete a leitura — assim uma atualização de placar nunca apaga um campo
// que o outro jogador acabou de escrever.
func (s *Store) Update(ctx context.Context, matchID string, fields store.Fields) (*match.Match, error) {
	var lastErr error
	for i := 0; i < casRetries; i++ {
		entry, err := s.kv.Get(matchID)
		if err != nil {
			if errors.Is(err, nats.ErrKeyNotFound) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}

		rec, err := decode(entry.Value())
		if err != nil {
			return nil, err
		}
		fields.Apply(rec)

		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}

		if _, err := s.kv.Update(matchID, data, entry.Revision()); err != nil {
			if isCASMismatch(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return rec, nil
	}
	return nil, fmt.Errorf("update of %s lost %d consecutive races: %w", matchID, casRetries, lastErr)
}

// UpdateWhereStatus é a escrita condicional do join. Diferente do Update,
// aqui perder o CAS não é motivo para insistir às cegas: relemos uma vez e,
// se o status já não for o esperado, a corrida foi perdida de verdade.
func (s *Store) UpdateWhereStatus(ctx context.Context, matchID string, want match.Status, fields store.Fields) (*match.Match, error) {
	for i := 0; i < 2; i++ {
		entry, err := s.kv.Get(matchID)
		if err != nil {
			if errors.Is(err, nats.ErrKeyNotFound) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}

		rec, err := decode(entry.Value())
		if err != nil {
			return nil, err
		}
		if rec.Status != want {
			return nil, store.ErrStatusConflict
		}
		fields.Apply(rec)

		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}

		if _, err := s.kv.Update(matchID, data, entry.Revision()); err != nil {
			if isCASMismatch(err) {
				// Alguém escreveu no meio. Pode ter sido só um placar;
				// a releitura decide se o status ainda permite entrar.
				continue
			}
			return nil, err
		}
		return rec, nil
	}
	return nil, store.ErrStatusConflict
}

// --- ChangeFeed ---

type watchSub struct {
	watcher nats.KeyWatcher
}

func (w *watchSub) Stop() {
	if err := w.watcher.Stop(); err != nil {
		log.Printf("[NatsKV] Erro ao parar watcher: %v", err)
	}
}

// Subscribe abre um watch na chave da partida e entrega cada novo valor ao
// callback. O watch do JetStream entrega primeiro o valor atual e depois um
// marcador nil; ambos são tratados aqui.
func (s *Store) Subscribe(matchID string, onChange func(*match.Match)) (store.Subscription, error) {
	watcher, err := s.kv.Watch(matchID)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", matchID, err)
	}

	go func() {
		for entry := range watcher.Updates() {
			if entry == nil {
				// Fim do replay inicial.
				continue
			}
			if entry.Operation() != nats.KeyValuePut {
				continue
			}
			rec, err := decode(entry.Value())
			if err != nil {
				log.Printf("[NatsKV] Push com payload inválido para %s: %v", matchID, err)
				continue
			}
			onChange(rec)
		}
	}()

	return &watchSub{watcher: watcher}, nil
}

func decode(data []byte) (*match.Match, error) {
	var rec match.Match
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode match record: %w", err)
	}
	return &rec, nil
}

// isCASMismatch reconhece o erro do JetStream para "a revisão que você viu
// não é mais a última".
func isCASMismatch(err error) bool {
	var apiErr *nats.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == nats.JSErrCodeStreamWrongLastSequence
}
