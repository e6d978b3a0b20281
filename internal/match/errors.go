package match

import "errors"

// Taxonomia de erros do ciclo de vida. Os handlers de sessão usam errors.Is
// para decidir qual mensagem mostrar ao jogador; o resto vai só para o log.
var (
	// ErrNotFound: o id informado não tem nenhuma linha no store.
	ErrNotFound = errors.New("match not found")

	// ErrNotJoinable: a linha existe mas já saiu de 'waiting'. É o resultado
	// esperado de perder a corrida de join, não uma falha.
	ErrNotJoinable = errors.New("match is not accepting players")

	// ErrInvalidState: comando emitido num estado que não o permite.
	ErrInvalidState = errors.New("invalid match state for this operation")

	// ErrRemoteWrite / ErrRemoteRead: falha de transporte ou do backend.
	ErrRemoteWrite = errors.New("remote write failed")
	ErrRemoteRead  = errors.New("remote read failed")

	// ErrValidation: entrada malformada (id vazio, timer não positivo...).
	ErrValidation = errors.New("invalid input")
)
