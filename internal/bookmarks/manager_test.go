package bookmarks

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

func TestAddAndReload(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	b, err := m.Add("Uptime", ".1.3.6.1.2.1.1.3.0", models.OpGet, " agent uptime ", []string{"system"})
	require.NoError(t, err)
	require.NotEmpty(t, b.ID)
	require.Equal(t, "1.3.6.1.2.1.1.3.0", b.OID)
	require.Equal(t, "agent uptime", b.Description)

	reloaded, err := NewManager(dir)
	require.NoError(t, err)
	all := reloaded.GetAll()
	require.Len(t, all, 1)
	require.Equal(t, b.ID, all[0].ID)
	require.Equal(t, models.OpGet, all[0].Operation)
}

func TestAddValidation(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.Add("  ", "1.3.6", models.OpGet, "", nil)
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = m.Add("bad oid", "1.3..6", models.OpGet, "", nil)
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = m.Add("bad op", "1.3.6", models.Operation("set"), "", nil)
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = m.Add("ifTable", "1.3.6.1.2.1.2.2", models.OpBulkWalk, "", nil)
	require.NoError(t, err)
	_, err = m.Add("IFTABLE", "1.3.6.1.2.1.2.2", models.OpBulkWalk, "", nil)
	require.ErrorIs(t, err, models.ErrValidation)
	require.Len(t, m.GetAll(), 1)
}

func TestUpdateDeleteGet(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	a, err := m.Add("a", "1.3.6.1.2.1.1", models.OpBulkWalk, "", nil)
	require.NoError(t, err)
	_, err = m.Add("b", "1.3.6.1.2.1.2", models.OpBulkWalk, "", nil)
	require.NoError(t, err)

	require.ErrorIs(t, m.Update(a.ID, "B", "1.3.6.1.2.1.1", models.OpBulkWalk, "", nil), models.ErrValidation)
	require.NoError(t, m.Update(a.ID, "system", "1.3.6.1.2.1.1.5.0", models.OpGet, "name", nil))

	got, err := m.Get(a.ID)
	require.NoError(t, err)
	require.Equal(t, "system", got.Name)
	require.Equal(t, models.OpGet, got.Operation)

	require.NoError(t, m.Delete(a.ID))
	_, err = m.Get(a.ID)
	require.True(t, errors.Is(err, ErrNotFound))
	require.True(t, errors.Is(m.Delete(a.ID), ErrNotFound))
	require.True(t, errors.Is(m.RecordUsage("missing"), ErrNotFound))
}

func TestSearch(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	_, _ = m.Add("Uptime", "1.3.6.1.2.1.1.3.0", models.OpGet, "", []string{"health"})
	_, _ = m.Add("Interfaces", "1.3.6.1.2.1.2.2", models.OpBulkWalk, "port counters", nil)

	require.Len(t, m.Search(""), 2)
	require.Len(t, m.Search("uptime"), 1)
	require.Len(t, m.Search("1.3.6.1.2.1.2"), 1)
	require.Len(t, m.Search("counters"), 1)
	require.Len(t, m.Search("HEALTH"), 1)
	require.Empty(t, m.Search("nothing"))
}

func TestUsageOrdering(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	tick := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	a, _ := m.Add("a", "1.3.6.1.1", models.OpGet, "", nil)
	b, _ := m.Add("b", "1.3.6.1.2", models.OpGet, "", nil)

	require.NoError(t, m.RecordUsage(a.ID))
	require.NoError(t, m.RecordUsage(a.ID))
	require.NoError(t, m.RecordUsage(b.ID))

	require.Equal(t, "a", m.GetMostUsed(1)[0].Name)
	require.Equal(t, "b", m.GetRecent(1)[0].Name)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	_, err = m.ExportToCSV("")
	require.Error(t, err)

	_, err = m.Add("uptime", "1.3.6.1.2.1.1.3.0", models.OpGet, "", nil)
	require.NoError(t, err)

	path, err := m.ExportToCSV("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "bookmarks.csv"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	path, err = m.ExportToJSON(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"oid": "1.3.6.1.2.1.1.3.0"`)
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bookmarks.yaml"), []byte("{not: [valid"), 0o644))
	_, err := NewManager(dir)
	require.Error(t, err)
}
