package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigWritesDefault(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	file := filepath.Join(t.TempDir(), "ricecall", "ricecall-server.toml")

	require.NoError(t, InitConfig(file))
	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigFile, written)

	assert.Equal(t, 8080, viper.GetInt("port"))
	assert.Equal(t, 65536, viper.GetInt("ws.max-frame-bytes"))
	assert.Equal(t, "ricecall", viper.GetString("auth.issuer"))
}

func TestInitConfigReadsFileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	file := filepath.Join(t.TempDir(), "ricecall-server.toml")
	require.NoError(t, os.WriteFile(file, []byte("port = 9000\n[database]\npath = \"/tmp/x.sqlite\"\n"), 0o600))
	t.Setenv("RICECALL_AUTH_SECRET", "from-env")

	require.NoError(t, InitConfig(file))
	assert.Equal(t, 9000, viper.GetInt("port"))
	assert.Equal(t, "from-env", viper.GetString("auth.secret"))
	assert.Equal(t, "/tmp/x.sqlite", DatabasePath())
}

func TestInitConfigNeedsPath(t *testing.T) {
	assert.Error(t, InitConfig(""))
}

func TestGetConfigDirRespectsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "ricecall"), GetConfigDir())
	assert.Equal(t, filepath.Join(dir, "ricecall", "ricecall-server.toml"), DefaultConfigFile())
}
