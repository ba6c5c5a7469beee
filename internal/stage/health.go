package stage

import "fmt"

// Health is a stage component's answer to "can you run right now?".
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

func Healthy(name string) Health { return Health{Name: name, Ready: true} }

// Unhealthy reports name as not ready for the reason given in detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// Err returns nil when ready and a descriptive error otherwise.
func (h Health) Err() error {
	if h.Ready {
		return nil
	}
	if h.Detail == "" {
		return fmt.Errorf("%s not ready", h.Name)
	}
	return fmt.Errorf("%s not ready: %s", h.Name, h.Detail)
}
