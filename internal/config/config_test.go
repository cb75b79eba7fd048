package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"TOKEN", "CLIENT_ID", "GUILD_ID", "ADDONS", "DB_DRIVER", "DB_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.False(t, cfg.Addons)
	assert.Equal(t, "addons", cfg.AddonsDir)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 4, cfg.MemberWorkers)
	assert.True(t, cfg.ShowBanner)
	assert.Equal(t, []string{"TOKEN", "CLIENT_ID", "GUILD_ID"}, cfg.Missing())
	assert.Equal(t, filepath.Join(".", "data", "botport.db"), cfg.DSN())
}

func TestDSN_SQLiteUnderProjectDir(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", ProjectDir: filepath.Join("srv", "bot")}
	assert.Equal(t, filepath.Join("srv", "bot", "data", "botport.db"), cfg.DSN())

	cfg.DBURL = "file:/var/lib/bot.db"
	assert.Equal(t, "file:/var/lib/bot.db", cfg.DSN())
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TOKEN=abc\nCLIENT_ID=1\nGUILD_ID=2\nADDONS=true\nMEMBER_WORKERS=8\n"), 0o644))
	t.Setenv("MEMBER_WORKERS", "2")
	for _, k := range []string{"TOKEN", "CLIENT_ID", "GUILD_ID", "ADDONS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Token)
	assert.True(t, cfg.Addons)
	assert.Equal(t, 2, cfg.MemberWorkers)
	assert.Empty(t, cfg.Missing())
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("ADDONS", "maybe")
	_, err := Load("")
	assert.ErrorContains(t, err, "parse env")
}

func TestDSN_Postgres(t *testing.T) {
	cfg := &Config{DBDriver: "postgres", DBHost: "db", DBPort: 5432, DBUser: "bot", DBPassword: "s3cret", DBName: "botport"}
	assert.Equal(t, "postgres://bot:s3cret@db:5432/botport?sslmode=disable", cfg.DSN())

	cfg.DBURL = "postgres://override"
	assert.Equal(t, "postgres://override", cfg.DSN())
}
