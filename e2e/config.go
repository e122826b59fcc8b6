package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config points the suites at a running server. With NETQUIZ_ADDR empty the
// suites start their own server in-process on loopback ports.
type Config struct {
	ServerAddr string `envconfig:"NETQUIZ_ADDR"`
	AdminAddr  string `envconfig:"NETQUIZ_ADMIN_ADDR"`
	// NETQUIZ_NOTIFICATION_PORT is where an external server broadcasts, 0 skips the UDP checks
	NotificationPort int `envconfig:"NETQUIZ_NOTIFICATION_PORT" default:"0"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool          `envconfig:"E2E_COLOURS" default:"true"`
	Timeout time.Duration `envconfig:"E2E_TIMEOUT" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
