package scanner_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
)

func discover(t *testing.T, td *scanner.TargetDiscovery, dir string) []string {
	t.Helper()
	targets, err := td.Discover(dir)
	require.NoError(t, err)
	var paths []string
	for _, target := range targets {
		paths = append(paths, target.RelPath)
	}
	sort.Strings(paths)
	return paths
}

func TestTargetLoadContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cpp")
	require.NoError(t, os.WriteFile(path, []byte("#include <a.h>\n#include <b.h>"), 0o644))

	target := &scanner.Target{Path: path, RelPath: "main.cpp"}
	require.NoError(t, target.LoadContent())
	require.Equal(t, []string{"#include <a.h>", "#include <b.h>"}, target.Lines())
	require.Equal(t, "main.cpp", target.Base())
	require.False(t, target.IsBinary())
}

func TestTargetIsCFamily(t *testing.T) {
	tests := []struct {
		relPath string
		want    bool
	}{
		{"src/main.cpp", true},
		{"src/util.CC", true},
		{"include/lib.h", true},
		{"include/lib.hpp", true},
		{"kernel.cu", true},
		{"App/View.mm", true},
		{"lib.c", true},
		{"CMakeLists.txt", false},
		{"conanfile.py", false},
		{"vcpkg.json", false},
		{"README.md", false},
	}
	for _, tt := range tests {
		target := &scanner.Target{RelPath: tt.relPath}
		require.Equal(t, tt.want, target.IsCFamily(), tt.relPath)
	}
}

func TestTargetDiscovery(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"CMakeLists.txt":          "find_package(Foo)",
		"src/main.cpp":            "int main() {}",
		"assets/logo.png":         "png",
		"build/app.o":             "obj",
		".git/HEAD":               "ref",
		"node_modules/x/index.js": "js",
	})

	paths := discover(t, &scanner.TargetDiscovery{}, dir)
	require.Equal(t, []string{"CMakeLists.txt", "src/main.cpp"}, paths)
}

func TestIgnoreFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"keep.cpp":             "keep",
		"skip.log":             "skip",
		"build/gen.h":          "gen",
		"third_party/a/b.h":    "vendored",
		"src/proto/msg.pb.h":   "generated",
		"src/proto/handmade.h": "kept",
		".cppdepsignore":       "# comment\n*.log\nbuild/\nthird_party/**\n**/*.pb.h\n",
	})

	paths := discover(t, &scanner.TargetDiscovery{}, dir)
	require.Equal(t, []string{".cppdepsignore", "keep.cpp", "src/proto/handmade.h"}, paths)
}

func TestIgnorePatterns(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/a.cpp":               "a",
		"src/gen/b.cpp":           "b",
		"cmake-build-debug/c.cpp": "c",
		"cmake-build-release/d.h": "d",
		"tests/fixtures/e.cpp":    "e",
		"tests/unit/f.cpp":        "f",
	})

	td := &scanner.TargetDiscovery{IgnorePatterns: []string{
		"cmake-build-*/**",
		"src/**/gen/*.cpp",
		"tests/fixtures",
	}}
	paths := discover(t, td, dir)
	require.Equal(t, []string{"src/a.cpp", "tests/unit/f.cpp"}, paths)
}

func TestDiscoveryTooLarge(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"small.h": "x",
		"huge.h":  strings.Repeat("x", 2048),
	})

	td := &scanner.TargetDiscovery{MaxFileSize: 1024}
	paths := discover(t, td, dir)
	require.Equal(t, []string{"small.h"}, paths)
	require.Len(t, td.Warnings, 1)
	require.Equal(t, "huge.h", td.Warnings[0].FilePath)
	require.Equal(t, types.WarnTooLarge, td.Warnings[0].Kind)
	require.Equal(t, "file is 2.0 KiB, limit is 1.0 KiB", td.Warnings[0].Message)
}

func TestDiscoverySymlinkCycle(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a/inner.h": "x"})
	if err := os.Symlink(dir, filepath.Join(dir, "a", "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	paths := discover(t, &scanner.TargetDiscovery{}, dir)
	require.Equal(t, []string{"a/inner.h"}, paths)
}

func TestDiscoveryFollowsSymlinkedDirs(t *testing.T) {
	outside := writeFiles(t, map[string]string{"lib/dep.h": "x"})
	dir := writeFiles(t, map[string]string{"main.cpp": "x"})
	if err := os.Symlink(filepath.Join(outside, "lib"), filepath.Join(dir, "linked")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	paths := discover(t, &scanner.TargetDiscovery{}, dir)
	require.Equal(t, []string{"linked/dep.h", "main.cpp"}, paths)

	paths = discover(t, &scanner.TargetDiscovery{NoFollowSymlinks: true}, dir)
	require.Equal(t, []string{"main.cpp"}, paths)
}

func TestDiscoveryDanglingSymlink(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.cpp": "x"})
	if err := os.Symlink(filepath.Join(dir, "missing.h"), filepath.Join(dir, "broken.h")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	td := &scanner.TargetDiscovery{}
	paths := discover(t, td, dir)
	require.Equal(t, []string{"main.cpp"}, paths)
	require.Len(t, td.Warnings, 1)
	require.Equal(t, "broken.h", td.Warnings[0].FilePath)
	require.Equal(t, types.WarnWalk, td.Warnings[0].Kind)
}
