package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "agencyflow.db", cfg.Database.Path)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  addr: ":9090"
database:
  path: /data/flow.db
roles:
  marketing_director: user-42
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	t.Setenv("AGENCYFLOW_DB_PATH", "/override/flow.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/override/flow.db", cfg.Database.Path)
	assert.Equal(t, domain.UserID("user-42"), cfg.GlobalRoles()[domain.RoleMarketingDirector])
}

func TestLoadRejectsTeamScopedRoleMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
roles:
  content_writer: user-7
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content_writer")
}
