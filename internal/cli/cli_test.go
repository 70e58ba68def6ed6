package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`env: production
admin_email: admin@example.com
admin_pin: "1234"
cache_file: %[1]s/cache.json
log_dir: %[1]s/logs
database:
  driver: sqlite
  path: %[1]s/showcase.db
storage:
  driver: local
  local_dir: %[1]s/static
`, filepath.ToSlash(dir))
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportExportRoundTrip(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated")

	file := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"title":"Invoice reader","subtitle":"OCR","description":"d","status":"live"},
		{"title":"Shift planner","subtitle":"Rostering","description":"d","status":"bogus"}
	]`), 0o644))
	out, err = run(t, cfg, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 solutions")

	out, err = run(t, cfg, "export", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"Invoice reader"`)
	assert.Contains(t, out, `"concept"`)

	xlsx := filepath.Join(t.TempDir(), "out.xlsx")
	_, err = run(t, cfg, "export", "--format", "xlsx", "--out", xlsx)
	require.NoError(t, err)
	info, err := os.Stat(xlsx)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = run(t, cfg, "export", "--format", "xlsx")
	assert.Error(t, err)
	_, err = run(t, cfg, "export", "--format", "csv")
	assert.Error(t, err)
}

func TestCacheCommands(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, cfg, "migrate")
	require.NoError(t, err)

	out, err := run(t, cfg, "cache", "seed-demo")
	require.NoError(t, err)
	assert.Contains(t, out, "cache.json")

	out, err = run(t, cfg, "cache", "migrate-demo")
	require.NoError(t, err)
	assert.Contains(t, out, "cache replaced with 0 solutions")
}

func TestAdminCreate(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, cfg, "migrate")
	require.NoError(t, err)

	out, err := run(t, cfg, "admin", "create", "--email", "admin@example.com", "--password", "correct-horse")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin@example.com")

	_, err = run(t, cfg, "admin", "create", "--email", "admin@example.com", "--password", "correct-horse")
	assert.Error(t, err)

	out, err = run(t, cfg, "admin", "create", "--email", "other@example.com", "--password", "correct-horse")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: only admin@example.com may sign in")
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "absent.yml"), "migrate")
	assert.Error(t, err)
}
