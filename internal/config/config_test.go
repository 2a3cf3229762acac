package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("MANAGEMENT_PORT", "")
	t.Setenv("METRICS_PORT", "")
	t.Setenv("FILE_PERM", "")
	t.Setenv("DIR_PERM", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, 8080, cfg.ManagementPort)
	require.Equal(t, 9090, cfg.MetricsPort)
	require.Equal(t, os.FileMode(0o644), cfg.FilePerm)
	require.Equal(t, os.FileMode(0o755), cfg.DirPerm)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/warden-data")
	t.Setenv("MANAGEMENT_PORT", "9999")
	t.Setenv("FILE_PERM", "600")
	t.Setenv("DIR_PERM", "700")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/warden-data", cfg.DataDir)
	require.Equal(t, 9999, cfg.ManagementPort)
	require.Equal(t, os.FileMode(0o600), cfg.FilePerm)
	require.Equal(t, os.FileMode(0o700), cfg.DirPerm)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("MANAGEMENT_PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)
}
