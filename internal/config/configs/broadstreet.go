package configs

import "time"

// Broadstreet configures the upstream advertising API client. Token is the
// access token sent with every request. Timeout bounds each HTTP call;
// there is no retry on top of it. Breaker toggles the circuit breaker in
// front of the API.
type Broadstreet struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.broadstreetads.com/api/1"`
	Token   string        `env:"TOKEN"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
	Breaker bool          `env:"BREAKER" envDefault:"true"`
}
