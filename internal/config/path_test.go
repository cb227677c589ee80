package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SIEVE_TEST_DIR", "/srv/sieve")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde", in: "~", want: home},
		{name: "tilde prefix", in: "~/.local/share/sieve/sieve.db", want: filepath.Join(home, ".local/share/sieve/sieve.db")},
		{name: "env var", in: "$SIEVE_TEST_DIR/reports", want: "/srv/sieve/reports"},
		{name: "absolute", in: "/tmp/sieve.db", want: "/tmp/sieve.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg")
	t.Setenv("XDG_DATA_HOME", "/var/lib")

	assert.Equal(t, "/etc/xdg/sieve", Dir())
	assert.Equal(t, "/var/lib/sieve", DataDir())
	assert.Equal(t, "/var/lib/sieve/sieve.db", DefaultDBPath())
}

func TestDirs_HomeFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	assert.Equal(t, filepath.Join(home, ".config", "sieve"), Dir())
	assert.Equal(t, filepath.Join(home, ".local", "share", "sieve", "sieve.db"), DefaultDBPath())
}
