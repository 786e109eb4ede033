package pattern_test

import (
	"context"
	"strings"
	"testing"

	"github.com/garagon/cppdeps/internal/engine/pattern"
	"github.com/garagon/cppdeps/internal/rules"
	"github.com/garagon/cppdeps/internal/rules/builtin"
	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
	"github.com/stretchr/testify/require"
)

func compileTestRule(t *testing.T, raw rules.RawRule) *rules.CompiledRule {
	t.Helper()
	cr, err := rules.Compile(raw)
	require.NoError(t, err)
	return cr
}

func builtinMatcher(t testing.TB) *pattern.Matcher {
	t.Helper()
	raws, err := rules.LoadFromFS(builtin.FS())
	require.NoError(t, err)
	compiled, errs := rules.CompileAll(raws)
	require.Empty(t, errs)
	return pattern.NewMatcher(compiled)
}

func TestMatcherFindPackage(t *testing.T) {
	m := builtinMatcher(t)
	target := &scanner.Target{
		RelPath: "CMakeLists.txt",
		Content: []byte("cmake_minimum_required(VERSION 3.20)\nproject(demo)\nfind_package(Foo)\n"),
	}

	got, err := m.Detect(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, types.KindCMakeFindPackage, got[0].SourceKind)
	require.Equal(t, "Foo", got[0].Name)
	require.Equal(t, 3, got[0].LineNumber)
	require.Equal(t, "CMAKE_FIND_PACKAGE", got[0].Detector)
	require.Equal(t, "find_package(Foo", got[0].RawMatch)
	require.Empty(t, got[0].Version)
}

func TestMatcherFindPackageVersionAndMultiline(t *testing.T) {
	m := builtinMatcher(t)
	content := "# find_package(Commented)\nfind_package(Boost 1.82 REQUIRED)\nfind_package(\n  ZLIB\n  REQUIRED)\n"
	target := &scanner.Target{RelPath: "cmake/deps.cmake", Content: []byte(content)}

	got, err := m.Detect(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Boost", got[0].Name)
	require.Equal(t, "1.82", got[0].Version)
	require.Equal(t, 2, got[0].LineNumber)
	require.Equal(t, "ZLIB", got[1].Name)
	require.Equal(t, 3, got[1].LineNumber)
}

func TestMatcherFetchContent(t *testing.T) {
	m := builtinMatcher(t)
	content := strings.Join([]string{
		"include(FetchContent)",
		"FetchContent_Declare(",
		"  fmt",
		"  GIT_REPOSITORY https://github.com/fmtlib/fmt.git",
		"  GIT_TAG 10.2.1",
		")",
		"FetchContent_MakeAvailable(fmt)",
	}, "\n")
	target := &scanner.Target{RelPath: "CMakeLists.txt", Content: []byte(content)}

	got, err := m.Detect(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, types.KindCMakeFetchContent, got[0].SourceKind)
	require.Equal(t, "fmt", got[0].Name)
	require.Equal(t, "10.2.1", got[0].Version)
	require.Equal(t, 2, got[0].LineNumber)
}

func TestMatcherConanfilePy(t *testing.T) {
	m := builtinMatcher(t)
	content := `from conan import ConanFile

class Demo(ConanFile):
    requires = "zlib/1.2.13", "boost/1.83.0@demo/stable"
    # requires = "old/0.1"

    def requirements(self):
        self.requires("fmt/[>=10 <11]")
`
	target := &scanner.Target{RelPath: "conanfile.py", Content: []byte(content)}

	got, err := m.Detect(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "zlib", got[0].Name)
	require.Equal(t, "1.2.13", got[0].Version)
	require.Equal(t, "boost", got[1].Name)
	require.Equal(t, 4, got[1].LineNumber)
	require.Equal(t, "fmt", got[2].Name)
	require.Equal(t, "[>=10 <11]", got[2].Version)
	require.Equal(t, 8, got[2].LineNumber)
	for _, d := range got {
		require.Equal(t, types.KindConanRequires, d.SourceKind)
	}
}

func TestMatcherVersionDefineOnlyInCFamily(t *testing.T) {
	m := builtinMatcher(t)
	content := []byte("#ifndef ZLIB_H\n#define ZLIB_VERSION \"1.2.13\"\n#define ZLIB_VERSION_MAJOR 1\n")

	got, err := m.Detect(context.Background(), &scanner.Target{RelPath: "include/zlib.h", Content: content})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, types.KindVersionDefine, got[0].SourceKind)
	require.Equal(t, "zlib", got[0].Name)
	require.Equal(t, "1.2.13", got[0].Version)
	require.Equal(t, 2, got[0].LineNumber)

	got, err = m.Detect(context.Background(), &scanner.Target{RelPath: "notes.txt", Content: content})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMatcherTargetFilter(t *testing.T) {
	rule := compileTestRule(t, rules.RawRule{
		ID:       "TEST_003",
		Kind:     "cmake_find_package",
		Targets:  []string{"CMakeLists.txt"},
		Patterns: []string{`use\((?P<name>\w+)\)`},
	})
	matcher := pattern.NewMatcher([]*rules.CompiledRule{rule})

	hit := &scanner.Target{RelPath: "sub/CMakeLists.txt", Content: []byte("use(x)")}
	got, _ := matcher.Detect(context.Background(), hit)
	require.Len(t, got, 1)

	miss := &scanner.Target{RelPath: "main.cpp", Content: []byte("use(x)")}
	got, _ = matcher.Detect(context.Background(), miss)
	require.Empty(t, got)
}

func TestMatcherTargetCaseInsensitive(t *testing.T) {
	m := builtinMatcher(t)
	for _, relPath := range []string{"cmakelists.txt", "sub/CMAKELISTS.TXT", "cmake/Deps.CMake"} {
		got, err := m.Detect(context.Background(), &scanner.Target{RelPath: relPath, Content: []byte("find_package(Foo)\n")})
		require.NoError(t, err)
		require.Len(t, got, 1, relPath)
		require.Equal(t, "Foo", got[0].Name)
	}

	got, err := m.Detect(context.Background(), &scanner.Target{
		RelPath: "ConanFile.py",
		Content: []byte(`requires = "zlib/1.3.1"`),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "zlib", got[0].Name)
}

func TestMatcherCMakeComments(t *testing.T) {
	m := builtinMatcher(t)
	content := "set(X 1) # find_package(Trailing)\n" +
		"message(\"#\") find_package(Quoted) # find_package(After)\n" +
		"#[[\n" +
		"find_package(Bracket)\n" +
		"FetchContent_Declare(json GIT_TAG 3.11.3)\n" +
		"]]\n" +
		"#[=[ find_package(Eq) ]=] find_package(Real 2.0)\n" +
		"find_package(Kept)\n"
	target := &scanner.Target{RelPath: "CMakeLists.txt", Content: []byte(content)}

	got, err := m.Detect(context.Background(), target)
	require.NoError(t, err)
	var names []string
	for _, d := range got {
		names = append(names, d.Name)
	}
	require.Equal(t, []string{"Quoted", "Kept"}, names)
}

func TestMatcherConanfilePyTrailingComment(t *testing.T) {
	m := builtinMatcher(t)
	content := "    requires = \"zlib/1.3.1\"  # \"bzip2/1.0.8\"\n" +
		"    url = \"https://x/#frag\"; tool_requires = \"cmake/3.27.0\"\n"
	got, err := m.Detect(context.Background(), &scanner.Target{RelPath: "conanfile.py", Content: []byte(content)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "zlib", got[0].Name)
	require.Equal(t, "cmake", got[1].Name)
	require.Equal(t, 2, got[1].LineNumber)
}

func TestMatcherCRLF(t *testing.T) {
	m := builtinMatcher(t)
	target := &scanner.Target{
		RelPath: "CMakeLists.txt",
		Content: []byte("project(x)\r\nfind_package(Threads)\r\n"),
	}
	got, err := m.Detect(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Threads", got[0].Name)
	require.Equal(t, 2, got[0].LineNumber)
}

func TestMatcherDetectorIDs(t *testing.T) {
	m := builtinMatcher(t)
	require.Contains(t, m.DetectorIDs(), "CMAKE_FIND_PACKAGE")
	require.Contains(t, m.DetectorIDs(), "CPP_VERSION_DEFINE")
}

func TestMatcherContextCancellation(t *testing.T) {
	m := builtinMatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := &scanner.Target{RelPath: "CMakeLists.txt", Content: []byte("find_package(Foo)")}
	_, err := m.Detect(ctx, target)
	require.Error(t, err)
}

func BenchmarkMatcher(b *testing.B) {
	var content []byte
	for i := 0; i < 1000; i++ {
		content = append(content, []byte("set(SOURCES main.cpp util.cpp) # ordinary cmake line\n")...)
	}
	content = append(content, []byte("find_package(OpenSSL 3.0 REQUIRED)\n")...)

	m := builtinMatcher(b)
	target := &scanner.Target{RelPath: "CMakeLists.txt", Content: content}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Detect(context.Background(), target)
	}
}
