package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	return configFile
}

func validConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{Workers: 1},
		Server:   ServerConfig{Port: 8080},
		Log:      LogConfig{Format: "text"},
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	configFile := writeConfig(t, `
log:
  level: debug
`)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "1.0.0", cfg.Analysis.Version)
	assert.Equal(t, "./data", cfg.Analysis.DataDir)
	assert.Equal(t, int64(64<<20), cfg.Analysis.MaxDumpBytes)
	assert.Equal(t, 0, cfg.Analysis.MaxThreads)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_CustomValues(t *testing.T) {
	configFile := writeConfig(t, `
analysis:
  version: "2.0.0"
  data_dir: "/tmp/data"
  max_dump_bytes: 1024
  max_threads: 5000
  strict_mode: true
  workers: 8
database:
  enabled: true
  type: postgres
  host: db.example.com
  port: 5432
  database: threaddump
  user: admin
  password: secret
storage:
  enabled: true
  type: local
  local_path: /tmp/storage
cache:
  enabled: true
  type: redis
  addr: redis.local:6379
  ttl_seconds: 60
server:
  port: 9090
log:
  format: json
`)

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", cfg.Analysis.Version)
	assert.Equal(t, "/tmp/data", cfg.Analysis.DataDir)
	assert.Equal(t, int64(1024), cfg.Analysis.MaxDumpBytes)
	assert.Equal(t, 5000, cfg.Analysis.MaxThreads)
	assert.True(t, cfg.Analysis.StrictMode)
	assert.Equal(t, 8, cfg.Analysis.Workers)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "threaddump", cfg.Database.Database)
	assert.Equal(t, "/tmp/storage", cfg.Storage.LocalPath)
	assert.Equal(t, "redis.local:6379", cfg.Cache.Addr)
	assert.Equal(t, time.Minute, cfg.Cache.TTL())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TDA_ANALYSIS_WORKERS", "12")
	t.Setenv("TDA_LOG_FORMAT", "json")

	cfg, err := Load(writeConfig(t, `
analysis:
  workers: 2
`))
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Analysis.Workers)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_InvalidDatabaseType(t *testing.T) {
	configFile := writeConfig(t, `
database:
  enabled: true
  type: oracle
  host: localhost
`)

	_, err := Load(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestLoad_DisabledSectionsNotValidated(t *testing.T) {
	configFile := writeConfig(t, `
database:
  enabled: false
  type: oracle
storage:
  enabled: false
  type: s3
`)

	_, err := Load(configFile)
	assert.NoError(t, err)
}

func TestLoad_COSWithCredentials(t *testing.T) {
	configFile := writeConfig(t, `
storage:
  enabled: true
  type: cos
  bucket: test-bucket
  region: ap-guangzhou
  secret_id: test-id
  secret_key: test-key
`)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, "cos", cfg.Storage.Type)
	assert.Equal(t, "test-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "https", cfg.Storage.Scheme)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero workers", func(c *Config) { c.Analysis.Workers = 0 }, "workers must be at least 1"},
		{"negative dump size", func(c *Config) { c.Analysis.MaxDumpBytes = -1 }, "max_dump_bytes"},
		{"negative max threads", func(c *Config) { c.Analysis.MaxThreads = -1 }, "max_threads"},
		{"postgres without host", func(c *Config) {
			c.Database = DatabaseConfig{Enabled: true, Type: "postgres"}
		}, "database host is required"},
		{"sqlite without path", func(c *Config) {
			c.Database = DatabaseConfig{Enabled: true, Type: "sqlite"}
		}, "sqlite database path is required"},
		{"cos without bucket", func(c *Config) {
			c.Storage = StorageConfig{Enabled: true, Type: "cos", Region: "ap-guangzhou"}
		}, "bucket and region"},
		{"unknown storage", func(c *Config) {
			c.Storage = StorageConfig{Enabled: true, Type: "s3"}
		}, "unsupported storage type"},
		{"redis without addr", func(c *Config) {
			c.Cache = CacheConfig{Enabled: true, Type: "redis"}
		}, "redis cache addr is required"},
		{"unknown cache", func(c *Config) {
			c.Cache = CacheConfig{Enabled: true, Type: "memcached"}
		}, "unsupported cache type"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "unsupported log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetTaskDir(t *testing.T) {
	cfg := &Config{
		Analysis: AnalysisConfig{
			DataDir: "/tmp/data",
		},
	}

	assert.Equal(t, "/tmp/data/task-uuid-123", cfg.GetTaskDir("task-uuid-123"))
}

func TestEnsureDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "analysis", "data")

	cfg := &Config{
		Analysis: AnalysisConfig{
			DataDir: dataDir,
		},
	}

	require.NoError(t, cfg.EnsureDataDir())

	_, err := os.Stat(dataDir)
	assert.NoError(t, err)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromReader(t *testing.T) {
	content := []byte(`
database:
  enabled: true
  type: mysql
  host: mysql.local
`)
	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "mysql.local", cfg.Database.Host)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "./data/threaddump.db", cfg.Database.Database)
	assert.Equal(t, int64(64<<20), cfg.Analysis.MaxDumpBytes)
	assert.Equal(t, "redis", cfg.Cache.Type)
	assert.False(t, cfg.Cache.Enabled)
}
