package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagon/cppdeps/internal/types"
)

func fixedClock(ts string) func() time.Time {
	return func() time.Time {
		t, _ := time.Parse(time.RFC3339, ts)
		return t
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")

	s := New(path)
	s.now = fixedClock("2026-01-02T03:04:05Z")
	s.Enrich(&types.Detection{SourceKind: types.KindCMakeFindPackage, Name: "fmt"})
	s.Enrich(&types.Detection{SourceKind: types.KindInclude, Name: "zlib.h", IncludeStyle: types.IncludeAngle})
	require.NoError(t, s.Save())

	s2 := New(path)
	require.NoError(t, s2.Load())
	assert.Equal(t, []string{"fmt", "zlib"}, s2.Names())
	assert.Equal(t, "2026-01-02T03:04:05Z", s2.Entries["fmt"].FirstSeen)
	assert.True(t, s2.Has("zlib"))
	assert.False(t, s2.Has("boost"))
}

func TestFirstRunMarksNothingNew(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, s.Load())

	d := types.Detection{SourceKind: types.KindConanRequires, Name: "zlib"}
	s.Enrich(&d)
	assert.False(t, d.New)
}

func TestEnrichMarksNewNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries": {"zlib": {"first_seen": "2026-01-01T00:00:00Z", "last_seen": "2026-01-01T00:00:00Z"}}}`), 0o644))

	s := New(path)
	s.now = fixedClock("2026-02-01T00:00:00Z")
	require.NoError(t, s.Load())

	known := types.Detection{SourceKind: types.KindInclude, Name: "zlib.h", IncludeStyle: types.IncludeAngle}
	fresh := types.Detection{SourceKind: types.KindVcpkgDependency, Name: "fmt"}
	local := types.Detection{SourceKind: types.KindInclude, Name: "util.h", IncludeStyle: types.IncludeQuoted}
	s.Enrich(&known)
	s.Enrich(&fresh)
	s.Enrich(&local)

	assert.False(t, known.New)
	assert.True(t, fresh.New)
	assert.False(t, local.New)

	require.NoError(t, s.Save())
	s2 := New(path)
	require.NoError(t, s2.Load())
	assert.Equal(t, []string{"fmt", "zlib"}, s2.Names())
	assert.Equal(t, "2026-01-01T00:00:00Z", s2.Entries["zlib"].FirstSeen)
	assert.Equal(t, "2026-02-01T00:00:00Z", s2.Entries["zlib"].LastSeen)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	err := New(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing baseline")
}

func TestRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.json")
	require.NoError(t, os.WriteFile(target, []byte(`{"entries": {}}`), 0o644))
	link := filepath.Join(dir, "link.json")
	require.NoError(t, os.Symlink(target, link))

	s := New(link)
	require.Error(t, s.Load())
	require.Error(t, s.Save())
}

func TestStoreCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "deep", "baseline.json")
	s := New(path)
	s.Enrich(&types.Detection{SourceKind: types.KindConanRequires, Name: "zlib"})
	require.NoError(t, s.Save())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveReplacesFileAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries": {"old": {}}}`), 0o644))

	s := New(path)
	require.NoError(t, s.Load())
	s.Enrich(&types.Detection{SourceKind: types.KindVcpkgDependency, Name: "curl"})
	require.NoError(t, s.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file left behind")
	assert.Equal(t, "baseline.json", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	s2 := New(path)
	require.NoError(t, s2.Load())
	assert.Equal(t, []string{"curl", "old"}, s2.Names())
}
