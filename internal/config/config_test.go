package config

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chasungsoo/querydsl/internal/querysql"
)

func memFs(t *testing.T, files map[string]string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	prev := AppFs
	AppFs = fs
	t.Cleanup(func() { AppFs = prev })
}

func TestLoad_Defaults(t *testing.T) {
	memFs(t, nil)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Driver:    "sqlite3",
		DSN:       ":memory:",
		LogLevel:  "info",
		LogFormat: "text",
	}, cfg)

	d, err := cfg.ResolveDialect()
	require.NoError(t, err)
	assert.Same(t, querysql.SQLite, d)
}

func TestLoad_File(t *testing.T) {
	memFs(t, map[string]string{"/etc/qdsl/qdsl.yaml": `
driver: postgres
dsn: postgres://localhost/qdsl
log_level: DEBUG
log_format: json
`})

	cfg, err := Load("/etc/qdsl/qdsl.yaml")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "postgres://localhost/qdsl", cfg.DSN)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)

	d, err := cfg.ResolveDialect()
	require.NoError(t, err)
	assert.Same(t, querysql.Postgres, d)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	memFs(t, nil)

	_, err := Load("/etc/qdsl/missing.yaml")
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_Precedence(t *testing.T) {
	memFs(t, map[string]string{
		"/etc/qdsl.yaml": "driver: postgres\ndialect: postgres\nlog_level: warn\n",
		".env":           "QDSL_DIALECT=mysql\nQDSL_LOG_LEVEL=error\nOTHER=ignored\n",
	})
	t.Setenv("QDSL_LOG_LEVEL", "debug")

	cfg, err := Load("/etc/qdsl.yaml")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "mysql", cfg.Dialect, ".env overrides the file")
	assert.Equal(t, "debug", cfg.LogLevel, "environment overrides .env")
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"dialect":    "dialect: oracle\n",
		"driver":     "driver: oracle\n",
		"log_level":  "log_level: loud\n",
		"log_format": "log_format: xml\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			memFs(t, map[string]string{"/qdsl.yaml": content})
			_, err := Load("/qdsl.yaml")
			assert.Error(t, err)
		})
	}
}

func TestConfig_Logger(t *testing.T) {
	var buf bytes.Buffer

	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	cfg = &Config{LogLevel: "info", LogFormat: "text"}
	logger, err = cfg.Logger(&buf)
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
