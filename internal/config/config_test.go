package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xrpltrade.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "wss://s.altnet.rippletest.net:51233", cfg.Server.URL)
	require.Equal(t, 15*time.Second, cfg.Server.ConnectTimeout)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.Journal.Enabled)
	require.False(t, cfg.Audit.Enabled)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
url = "ws://localhost:6006"
connect_timeout = "5s"

[accounts]
dir = "/etc/xrpltrade/accounts"
names = ["trader", "market"]

[journal]
enabled = true
dir = "/var/lib/xrpltrade/journal"

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:6006", cfg.Server.URL)
	require.Equal(t, 5*time.Second, cfg.Server.ConnectTimeout)
	require.Equal(t, []string{"trader", "market"}, cfg.Accounts.Names)
	require.True(t, cfg.Journal.Enabled)
	require.Equal(t, "/var/lib/xrpltrade/journal", cfg.Journal.Dir)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, path, cfg.Path())
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[server]
url = "ws://localhost:6006"
`)
	t.Setenv("XRPLTRADE_SERVER_URL", "wss://s1.ripple.com:443")
	t.Setenv("XRPLTRADE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "wss://s1.ripple.com:443", cfg.Server.URL)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"http_url": `
[server]
url = "http://localhost:5005"
`,
		"journal_without_dir": `
[journal]
enabled = true
`,
		"audit_without_database": `
[audit]
enabled = true
host = "db"
`,
		"bad_log_format": `
[log]
format = "xml"
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}
