package scanner

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/src-d/enry/v2"

	"github.com/garagon/cppdeps/internal/types"
)

// DefaultMaxFileSize is the largest file loaded when no limit is configured.
const DefaultMaxFileSize = 4 << 20

// binarySniffLen is how many leading bytes are checked for NUL.
const binarySniffLen = 8000

// Target represents a file to be scanned.
type Target struct {
	Path    string
	RelPath string // slash-separated, relative to the scan root
	Size    int64
	Content []byte

	lang string
}

// LoadContent reads the file content into memory.
func (t *Target) LoadContent() error {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return err
	}
	t.Content = data
	return nil
}

// Lines returns the content split into lines.
func (t *Target) Lines() []string {
	return strings.Split(string(t.Content), "\n")
}

// Base returns the file name without directories.
func (t *Target) Base() string {
	return path.Base(t.RelPath)
}

// IsBinary reports whether the loaded content looks like binary data.
func (t *Target) IsBinary() bool {
	head := t.Content
	if len(head) > binarySniffLen {
		head = head[:binarySniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}

// Language returns the linguist language name for the file, guessed from
// its name alone. Empty when unknown.
func (t *Target) Language() string {
	if t.lang == "" {
		t.lang = enry.GetLanguage(t.Base(), nil)
	}
	return t.lang
}

var cFamilyLanguages = map[string]bool{
	"C":             true,
	"C++":           true,
	"Objective-C":   true,
	"Objective-C++": true,
	"Cuda":          true,
}

var cFamilyExts = map[string]bool{
	".c": true, ".cc": true, ".cpp": true, ".cxx": true, ".c++": true,
	".h": true, ".hh": true, ".hpp": true, ".hxx": true, ".h++": true,
	".inl": true, ".ipp": true, ".tpp": true, ".ixx": true, ".cppm": true,
	".m": true, ".mm": true, ".cu": true, ".cuh": true,
}

// IsCFamily reports whether the target is a C, C++, Objective-C or CUDA
// source or header.
func (t *Target) IsCFamily() bool {
	if cFamilyExts[strings.ToLower(path.Ext(t.RelPath))] {
		return true
	}
	return cFamilyLanguages[t.Language()]
}

// TargetDiscovery walks a directory and returns scannable targets.
// Problems with individual entries are collected in Warnings.
type TargetDiscovery struct {
	IgnorePatterns []string
	MaxFileSize    int64
	// NoFollowSymlinks disables descending into symlinked directories.
	NoFollowSymlinks bool

	Warnings []types.Warning

	visited map[string]bool
}

// Discover walks root and returns all targets, respecting .cppdepsignore.
// Directories reached through symlinks are visited at most once, keyed by
// their resolved path, so link cycles terminate.
func (td *TargetDiscovery) Discover(root string) ([]*Target, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &types.InvalidRootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &types.InvalidRootError{Path: root}
	}
	if td.MaxFileSize <= 0 {
		td.MaxFileSize = DefaultMaxFileSize
	}
	td.loadIgnoreFile(root)
	td.visited = make(map[string]bool)

	var targets []*Target
	td.walk(root, "", &targets)
	return targets, nil
}

func (td *TargetDiscovery) walk(dir, rel string, targets *[]*Target) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		td.warn(rel, types.WarnWalk, err)
		return
	}
	if td.visited[resolved] {
		return
	}
	td.visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		td.warn(rel, types.WarnWalk, err)
		// ReadDir may still return the entries read before the failure.
	}

	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(dir, name)
		relPath := name
		if rel != "" {
			relPath = rel + "/" + name
		}

		mode := e.Type()
		var info os.FileInfo
		if mode&os.ModeSymlink != 0 {
			info, err = os.Stat(full)
			if err != nil {
				td.warn(relPath, types.WarnWalk, err)
				continue
			}
			if info.IsDir() && td.NoFollowSymlinks {
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if skipDirs[name] || td.isIgnored(relPath) {
				continue
			}
			td.walk(full, relPath, targets)
		case mode.IsRegular():
			if isBinaryExt(name) || td.isIgnored(relPath) {
				continue
			}
			if info == nil {
				info, err = e.Info()
				if err != nil {
					td.warn(relPath, types.WarnWalk, err)
					continue
				}
			}
			if info.Size() > td.MaxFileSize {
				td.Warnings = append(td.Warnings, types.Warning{
					FilePath: relPath,
					Kind:     types.WarnTooLarge,
					Message: fmt.Sprintf("file is %s, limit is %s",
						humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(td.MaxFileSize))),
				})
				continue
			}
			*targets = append(*targets, &Target{
				Path:    full,
				RelPath: relPath,
				Size:    info.Size(),
			})
		}
	}
}

func (td *TargetDiscovery) warn(relPath string, kind types.WarningKind, err error) {
	if relPath == "" {
		relPath = "."
	}
	td.Warnings = append(td.Warnings, types.Warning{
		FilePath: relPath,
		Kind:     kind,
		Message:  err.Error(),
	})
}

var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	".cppdeps":     true,
}

func (td *TargetDiscovery) loadIgnoreFile(root string) {
	f, err := os.Open(filepath.Join(root, ".cppdepsignore"))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			td.IgnorePatterns = append(td.IgnorePatterns, strings.TrimSuffix(line, "/"))
		}
	}
}

func (td *TargetDiscovery) isIgnored(relPath string) bool {
	for _, pattern := range td.IgnorePatterns {
		if matchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// matchGlob supports ** globs that path.Match does not.
// "dir/**" matches dir itself and any path under dir/ at any depth.
// "**/*.h" matches any .h file at any depth.
func matchGlob(pattern, relPath string) bool {
	if !strings.Contains(pattern, "**") {
		if matched, _ := path.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := path.Match(pattern, path.Base(relPath)); matched {
			return true
		}
		return false
	}

	if strings.HasSuffix(pattern, "/**") {
		if matchLeading(strings.TrimSuffix(pattern, "/**"), relPath) {
			return true
		}
	}

	if strings.HasPrefix(pattern, "**/") {
		if matchAnySuffix(strings.TrimPrefix(pattern, "**/"), relPath) {
			return true
		}
	}

	if idx := strings.Index(pattern, "/**/"); idx >= 0 {
		prefix := pattern[:idx]
		suffix := pattern[idx+4:]
		if strings.HasPrefix(relPath, prefix+"/") {
			if matchAnySuffix(suffix, strings.TrimPrefix(relPath, prefix+"/")) {
				return true
			}
		}
	}

	return false
}

// matchLeading reports whether glob matches relPath or one of its parent
// directories.
func matchLeading(glob, relPath string) bool {
	parts := strings.Split(relPath, "/")
	for i := 1; i <= len(parts); i++ {
		if matched, _ := path.Match(glob, strings.Join(parts[:i], "/")); matched {
			return true
		}
	}
	return false
}

func matchAnySuffix(glob, relPath string) bool {
	parts := strings.Split(relPath, "/")
	for i := range parts {
		if matched, _ := path.Match(glob, strings.Join(parts[i:], "/")); matched {
			return true
		}
	}
	return false
}

var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".lib": true, ".obj": true, ".o": true, ".a": true,
	".pdb": true, ".pch": true, ".gch": true, ".class": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".ico": true, ".bmp": true, ".woff": true, ".woff2": true,
	".ttf": true, ".eot": true, ".zip": true, ".tar": true,
	".gz": true, ".bz2": true, ".xz": true, ".7z": true,
	".pdf": true, ".mp3": true, ".mp4": true, ".avi": true,
	".mov": true, ".bin": true,
}

func isBinaryExt(name string) bool {
	return binaryExts[strings.ToLower(filepath.Ext(name))]
}
