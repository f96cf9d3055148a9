package consul

import (
	"fmt"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

type Registration struct {
	Name string
	Host string
	Port string
}

// RegisterWithConsul registers the HTTP service with an HTTP health check on /ping.
func RegisterWithConsul(addr string, reg Registration) (*consulapi.Client, string, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("create consul client: %w", err)
	}

	port, err := strconv.Atoi(reg.Port)
	if err != nil {
		return nil, "", fmt.Errorf("invalid service port %q: %w", reg.Port, err)
	}
	id := fmt.Sprintf("%s-%s-%d", reg.Name, reg.Host, port)
	service := &consulapi.AgentServiceRegistration{
		ID:      id,
		Name:    reg.Name,
		Address: reg.Host,
		Port:    port,
		Tags:    []string{"http", "mizora"},
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", reg.Host, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(service); err != nil {
		return nil, "", fmt.Errorf("register %s with consul: %w", reg.Name, err)
	}
	return client, id, nil
}

func Deregister(client *consulapi.Client, id string) error {
	if client == nil {
		return nil
	}
	return client.Agent().ServiceDeregister(id)
}
