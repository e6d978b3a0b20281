package match

import "fmt"

// Views derivadas do estado atual. São funções puras: nenhuma delas toca
// rede, cache ou relógio.

// ShareLink monta o link de convite para o segundo jogador.
// Partidas solo não têm convite, então o link é vazio.
func (m *Match) ShareLink(baseURL string) string {
	if !m.Loaded() || m.IsSolo {
		return ""
	}
	return fmt.Sprintf("%s/join/%s", baseURL, m.MatchID)
}

// RoleOf resolve qual papel (A ou B) pertence à identidade informada.
// O segundo retorno é false quando a identidade não está na partida.
func (m *Match) RoleOf(identity string) (Role, bool) {
	if m == nil || identity == "" {
		return "", false
	}
	if m.ParticipantA != nil && m.ParticipantA.Identity == identity {
		return RoleA, true
	}
	if m.ParticipantB != nil && m.ParticipantB.Identity == identity {
		return RoleB, true
	}
	return "", false
}

// Self devolve o participante que corresponde à identidade do chamador.
func (m *Match) Self(identity string) *Participant {
	role, ok := m.RoleOf(identity)
	if !ok {
		return nil
	}
	if role == RoleA {
		return m.ParticipantA
	}
	return m.ParticipantB
}

// Opponent devolve o outro participante, visto da identidade do chamador.
func (m *Match) Opponent(identity string) *Participant {
	role, ok := m.RoleOf(identity)
	if !ok {
		return nil
	}
	if role == RoleA {
		return m.ParticipantB
	}
	return m.ParticipantA
}

// ScoreOf lê o placar de um papel. Papel ausente conta como zero.
func (m *Match) ScoreOf(role Role) int {
	if m == nil || m.Scores == nil {
		return 0
	}
	return m.Scores[role]
}

// OpponentScore lê o placar do adversário da identidade informada.
func (m *Match) OpponentScore(identity string) int {
	role, ok := m.RoleOf(identity)
	if !ok {
		return 0
	}
	if role == RoleA {
		return m.ScoreOf(RoleB)
	}
	return m.ScoreOf(RoleA)
}
