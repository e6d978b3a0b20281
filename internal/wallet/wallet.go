// O pacote wallet cuida da fronteira com a identidade dos jogadores: no
// JumpClash a identidade de um participante é o endereço da carteira na
// Monad Testnet. Aqui ficam só validação e formatação para exibição —
// buscar saldo e resolver identidade são problemas de outros serviços.
package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	NetworkName = "Monad Testnet"
	ChainID     = 10143
	Symbol      = "MON"
	Decimals    = 18
)

// dustThreshold: saldos abaixo de 1e14 wei são poeira e viram "0.00".
var dustThreshold = big.NewInt(100_000_000_000_000)

// IsValidAddress confere se a identidade é um endereço hex válido.
func IsValidAddress(identity string) bool {
	return common.IsHexAddress(identity)
}

// ShortAddress formata um endereço para exibição: 0x1234...abcd.
func ShortAddress(address string) string {
	const startChars, endChars = 6, 4
	if address == "" {
		return ""
	}
	if len(address) <= startChars+endChars {
		return address
	}
	return address[:startChars] + "..." + address[len(address)-endChars:]
}

// FormatBalance converte um saldo em wei para MON com 4 casas decimais,
// usando só aritmética de string para não perder precisão no caminho.
func FormatBalance(wei *big.Int) string {
	if wei == nil || wei.Sign() <= 0 {
		return "0.00"
	}
	if wei.Cmp(dustThreshold) < 0 {
		return "0.00"
	}

	s := wei.String()
	if len(s) <= Decimals {
		// Menos de 1 MON: preenche com zeros à esquerda até os 18 dígitos.
		padded := make([]byte, Decimals-len(s))
		for i := range padded {
			padded[i] = '0'
		}
		frac := string(padded) + s
		return "0." + frac[:4]
	}

	whole := s[:len(s)-Decimals]
	frac := s[len(s)-Decimals:]
	return whole + "." + frac[:4]
}
