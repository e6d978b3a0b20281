package cluster

import (
	"fmt"
	"log"
	"math/rand"
	"time"
)

// DiscoverService procura uma instância saudável do serviço no Consul e
// devolve "host:porta". Com mais de uma instância saudável, escolhe uma ao
// acaso. Devolve string vazia quando não há ninguém — quem chamou decide se
// isso é fatal (o gateway sem store é) ou não.
func DiscoverService(serviceName string, consulAddrs string) string {
	client, err := NewConsulClient(consulAddrs)
	if err != nil {
		log.Printf("ERRO: Erro ao criar cliente Consul para descoberta: %v", err)
		return ""
	}

	services, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil || len(services) == 0 {
		log.Printf("AVISO: Nenhum serviço saudável para '%s' encontrado: %v", serviceName, err)
		return ""
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := services[r.Intn(len(services))]
	addr := s.Service.Address
	if addr == "" {
		addr = s.Node.Address
	}
	return fmt.Sprintf("%s:%d", addr, s.Service.Port)
}
