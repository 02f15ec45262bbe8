package configs

import (
	"fmt"
	"time"
)

// HTTP configures the API server. Host may stay empty to bind all
// interfaces. The write timeout is generous because sync triggers run to
// completion before responding.
type HTTP struct {
	Host         string        `env:"HOST" envDefault:""`
	Port         uint16        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"120s"`
}

// Addr returns the listen address in host:port form.
func (c HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
