package cluster

import (
	"fmt"
	"log"
	"os"

	consul "github.com/hashicorp/consul/api"
)

// RegisterServiceInConsul registra este processo como uma instância do
// serviço, com health check HTTP. O agente desregistra sozinho instâncias
// que ficarem críticas por mais de um minuto.
func RegisterServiceInConsul(serviceName string, servicePort int, healthPort int, consulAddr string) error {
	config := consul.DefaultConfig()
	config.Address = consulAddr

	consulClient, err := consul.NewClient(config)
	if err != nil {
		return fmt.Errorf("erro ao criar cliente Consul: %w", err)
	}

	// O hostname do contêiner dá um ID de serviço único por instância.
	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	serviceID := fmt.Sprintf("%s-%s", serviceName, hostname)

	registration := &consul.AgentServiceRegistration{
		ID:   serviceID,
		Name: serviceName,
		Port: servicePort,

		// Sem 'Address': o agente do Consul usa o IP do contêiner que está
		// fazendo o registro. O check, por outro lado, precisa de um host
		// resolvível — dentro da rede do compose o hostname serve.
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", hostname, healthPort),
			Timeout:                        "5s",
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := consulClient.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("falha ao registrar serviço no Consul: %w", err)
	}

	log.Printf("Serviço '%s' registrado no Consul com ID: %s", serviceName, serviceID)
	return nil
}
