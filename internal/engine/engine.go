// O pacote engine é o coração do JumpClash: o motor de sincronização da
// sessão. Ele é o único dono do estado da partida no lado deste cliente.
//
// Três fontes querem mexer nesse estado ao mesmo tempo: os comandos do
// jogador, os pushes remotos do outro jogador e o timer da partida. Para
// nenhum campo ser mutado por duas pilhas de chamada concorrentes, o engine
// é um ator: todas as mutações viram tarefas enfileiradas num canal e
// executadas por uma única goroutine (o mesmo padrão do nosso cache de
// descoberta de serviços). O I/O remoto fica FORA do ator, de propósito:
// enquanto um comando espera o store responder, um push do adversário ainda
// consegue ser aplicado.
package engine

import (
	"log"
	"sync"
	"time"

	"jumpclash/internal/match"
	"jumpclash/internal/store"
)

// Deps são os colaboradores injetados no engine. Nada aqui é singleton:
// cada cliente conectado tem a sua própria instância, com o seu próprio
// slot de snapshot (isso também é o que permite vários engines num teste).
type Deps struct {
	Store store.RecordStore
	Feed  store.ChangeFeed
	Cache store.SnapshotCache

	// ShareBase é a origem usada para montar o link de convite.
	ShareBase string

	// OnChange, se presente, é chamado depois de cada adoção de estado —
	// é o gancho que faz a UI re-renderizar. Roda na goroutine do ator,
	// então precisa ser rápido (mandar numa channel, por exemplo).
	OnChange func(*match.Match)
}

type task struct {
	fn   func()
	done chan struct{}
}

// Engine mantém o estado autoritativo local da partida atual.
type Engine struct {
	deps Deps

	tasks chan task
	quit  chan struct{}
	dead  chan struct{}
	once  sync.Once

	// Os campos abaixo pertencem exclusivamente à goroutine run().
	current  *match.Match
	sub      store.Subscription
	subID    string
	timer    *time.Timer
	timerFor string
}

// New cria o engine e já tenta semear o estado a partir do cache local,
// para um cliente recarregado não perder o lugar. A semente é best-effort:
// qualquer leitura autoritativa ou push posterior passa por cima dela.
func New(deps Deps) *Engine {
	e := &Engine{
		deps:    deps,
		tasks:   make(chan task),
		quit:    make(chan struct{}),
		dead:    make(chan struct{}),
		current: match.NewIdle(),
	}
	go e.run()
	e.seedFromCache()
	return e
}

func (e *Engine) run() {
	defer close(e.dead)
	for {
		select {
		case t := <-e.tasks:
			t.fn()
			close(t.done)
		case <-e.quit:
			e.teardown()
			return
		}
	}
}

// do enfileira uma tarefa e espera ela executar. Depois do Close, vira um
// no-op em vez de travar quem chamou.
func (e *Engine) do(fn func()) {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case e.tasks <- t:
		<-t.done
	case <-e.quit:
	}
}

// Close derruba a inscrição, o timer e a goroutine do ator, e só retorna
// quando o ator parou de vez. O estado remoto e o cache local ficam como
// estão (fechar não é reset).
func (e *Engine) Close() {
	e.once.Do(func() {
		close(e.quit)
	})
	<-e.dead
}

// Snapshot devolve uma cópia do estado atual. Nunca o ponteiro interno.
func (e *Engine) Snapshot() *match.Match {
	var snap *match.Match
	e.do(func() {
		snap = e.current.Clone()
	})
	return snap
}

// ShareLink é a view derivada do link de convite da partida atual.
func (e *Engine) ShareLink() string {
	return e.Snapshot().ShareLink(e.deps.ShareBase)
}

// --- Adoção de estado (sempre na goroutine do ator) ---

// adopt instala um registro como o novo estado autoritativo local e dispara
// os efeitos que acompanham TODA adoção, venha ela de um comando ou de um
// push remoto: persistir o snapshot, garantir a inscrição e acertar o timer.
func (e *Engine) adopt(rec *match.Match) {
	e.current = rec.Clone()
	e.persistSnapshot()
	e.ensureSubscription()
	e.syncTimer()
	if e.deps.OnChange != nil {
		e.deps.OnChange(e.current.Clone())
	}
}

// persistSnapshot espelha o estado atual no cache local. Falha de cache é
// só log: o cache é resiliência, não fonte de verdade.
func (e *Engine) persistSnapshot() {
	if e.deps.Cache == nil {
		return
	}
	if err := e.deps.Cache.Set(e.current); err != nil {
		log.Printf("[Engine] Falha ao persistir snapshot local: %v", err)
	}
}

// ensureSubscription mantém o invariante de "no máximo uma inscrição viva":
// abre o watch quando uma partida com id passa a existir, troca quando o id
// muda e derruba quando não há mais partida (ou quando ela é solo — partida
// solo nunca passa pelo store, então não tem o que ouvir).
func (e *Engine) ensureSubscription() {
	wantID := ""
	if e.current.Loaded() && !e.current.IsSolo {
		wantID = e.current.MatchID
	}

	if e.subID == wantID {
		return
	}
	e.dropSubscription()
	if wantID == "" || e.deps.Feed == nil {
		return
	}

	sub, err := e.deps.Feed.Subscribe(wantID, e.onRemotePush)
	if err != nil {
		// Sem canal de push não se derruba o cliente: seguimos servindo o
		// último estado conhecido; o próximo fetch explícito ressincroniza.
		log.Printf("[Engine] Falha ao abrir inscrição para %s: %v", wantID, err)
		return
	}
	e.sub = sub
	e.subID = wantID
}

func (e *Engine) dropSubscription() {
	if e.sub != nil {
		e.sub.Stop()
		e.sub = nil
	}
	e.subID = ""
}

// onRemotePush roda na goroutine do feed. O push remoto é autoritativo e
// vence qualquer valor otimista local ("remote-authoritative"): nada de
// merge campo a campo, o registro inteiro substitui o estado.
func (e *Engine) onRemotePush(rec *match.Match) {
	e.do(func() {
		if !e.current.Loaded() || e.current.MatchID != rec.MatchID {
			// Push atrasado de uma partida que já não é a nossa.
			return
		}
		e.adopt(rec)
	})
}

// --- Timer da partida ---

// syncTimer arma o relógio de fim de partida quando o estado vira active e
// o desarma em qualquer outro estado. Os dois lados armam o seu: quem não
// chamou startMatch fica sabendo do active pelo push e arma igual.
func (e *Engine) syncTimer() {
	active := e.current.Loaded() &&
		e.current.Status == match.StatusActive &&
		!e.current.IsSolo &&
		e.current.TimerSeconds > 0

	if !active {
		e.stopTimer()
		return
	}
	if e.timerFor == e.current.MatchID {
		return // já armado para esta partida
	}

	e.stopTimer()
	matchID := e.current.MatchID
	remaining := e.current.Remaining(time.Now().UTC())
	e.timerFor = matchID
	e.timer = time.AfterFunc(remaining, func() {
		e.expireMatch(matchID)
	})
}

func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerFor = ""
}

// expireMatch roda quando o tempo da partida acaba. Só encerra se a partida
// do timer ainda for a atual e ainda estiver ativa.
func (e *Engine) expireMatch(matchID string) {
	stale := false
	e.do(func() {
		stale = !e.current.Loaded() ||
			e.current.MatchID != matchID ||
			e.current.Status != match.StatusActive
	})
	if stale {
		return
	}

	log.Printf("[Engine] Tempo esgotado para a partida %s, encerrando.", matchID)
	if err := e.EndMatch(); err != nil {
		log.Printf("[Engine] Falha ao encerrar partida expirada %s: %v", matchID, err)
	}
}

// --- Semente do cache local ---

func (e *Engine) seedFromCache() {
	if e.deps.Cache == nil {
		return
	}
	rec, err := e.deps.Cache.Get()
	if err != nil {
		log.Printf("[Engine] Snapshot local ilegível, começando do zero: %v", err)
		return
	}
	if !rec.Loaded() {
		return
	}
	e.do(func() {
		e.adopt(rec)
	})
}

// teardown roda quando o ator morre (Close).
func (e *Engine) teardown() {
	e.dropSubscription()
	e.stopTimer()
}
