package localcache

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/microsolutions/showcase/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "data", "solutions-cache.json"), nil)
}

func solutions(prefix string, n int) []models.SolutionModel {
	out := make([]models.SolutionModel, n)
	for i := range out {
		out[i] = models.SolutionModel{Base: models.Base{ID: fmt.Sprintf("%s-%d", prefix, i)}, Title: prefix}
		out[i].SetAreas([]string{"finance"})
		out[i].SetGoals([]int{i + 1})
	}
	return out
}

func ids(list []models.SolutionModel) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = list[i].ID
	}
	return out
}

func TestLoadMissingFile(t *testing.T) {
	assert.Nil(t, newStore(t).Load())
}

func TestLoadMalformedFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))
	assert.Nil(t, s.Load())

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"id":"object-not-array"}`), 0o644))
	assert.Nil(t, s.Load())
}

func TestSaveThenLoad(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(solutions("real", 2)))

	got := s.Load()
	require.Len(t, got, 2)
	assert.Equal(t, []string{"real-0", "real-1"}, ids(got))
	assert.Equal(t, []string{"finance"}, got[1].Areas())
	assert.Equal(t, []int{2}, got[1].Goals())

	require.NoError(t, s.Save(solutions("newer", 1)))
	assert.Equal(t, []string{"newer-0"}, ids(s.Load()))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveNilWritesEmptyList(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(nil))
	got := s.Load()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMigrateDemoToRealOverwritesDemoSizedCache(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(solutions("cached", DemoDatasetSize)))

	wrote, err := s.MigrateDemoToReal(solutions("real", 7))
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Len(t, s.Load(), 7)
}

func TestMigrateDemoToRealKeepsLargerCache(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(solutions("cached", DemoDatasetSize+1)))

	wrote, err := s.MigrateDemoToReal(solutions("real", 7))
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, "cached-0", s.Load()[0].ID)
	assert.Len(t, s.Load(), DemoDatasetSize+1)
}

func TestMigrateDemoToRealWritesWhenAbsent(t *testing.T) {
	s := newStore(t)
	wrote, err := s.MigrateDemoToReal(solutions("real", 1))
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, []string{"real-0"}, ids(s.Load()))
}

func TestMigrateDemoToRealClobbersSmallGenuineList(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(solutions("genuine", 2)))

	wrote, err := s.MigrateDemoToReal(solutions("real", 1))
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, []string{"real-0"}, ids(s.Load()))
}

func TestDemoSolutions(t *testing.T) {
	demo := DemoSolutions()
	require.Len(t, demo, DemoDatasetSize)
	for _, d := range demo {
		assert.True(t, d.Status.Valid(), d.ID)
		assert.NotEmpty(t, d.Areas(), d.ID)
		for _, a := range d.Areas() {
			assert.GreaterOrEqual(t, models.BusinessAreaIndex(a), 0, a)
		}
	}
}
