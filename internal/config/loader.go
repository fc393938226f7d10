package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration in priority order: built-in defaults, then the
// TOML file at configPath when non-empty, then XRPLTRADE_ environment
// variables. The result is validated before it is returned.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config: file does not exist: %s", configPath)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix("XRPLTRADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.configPath = configPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "wss://s.altnet.rippletest.net:51233")
	v.SetDefault("server.connect_timeout", 15*time.Second)
	v.SetDefault("server.submit_timeout", 60*time.Second)

	v.SetDefault("accounts.dir", "accounts")
	v.SetDefault("accounts.names", []string{})

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.dir", "")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.host", "localhost")
	v.SetDefault("audit.port", "5432")
	v.SetDefault("audit.database", "")
	v.SetDefault("audit.user", "postgres")
	v.SetDefault("audit.password", "")
	v.SetDefault("audit.sslmode", "disable")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
