package cluster

import (
	"encoding/json"
	"net/http"
	"sync"
)

// CheckFunc é uma verificação de saúde: retorna erro quando algo está mal.
type CheckFunc func() error

// HealthAggregator junta várias verificações num endpoint HTTP só. O
// gateway registra aqui a conexão com o NATS e o ping do banco de
// snapshots; o Consul bate nesse endpoint.
type HealthAggregator struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{
		checks: make(map[string]CheckFunc),
	}
}

// AddCheck registra uma nova função de verificação.
func (h *HealthAggregator) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Handler executa todas as verificações: 200 se tudo passou, 503 com o
// mapa de erros se alguma falhou.
func (h *HealthAggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		defer h.mu.RUnlock()

		errors := make(map[string]string)
		for name, check := range h.checks {
			if err := check(); err != nil {
				errors[name] = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if len(errors) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(errors)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}
