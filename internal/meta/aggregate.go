package meta

import (
	"path"
	"sort"
	"strings"

	"github.com/garagon/cppdeps/internal/types"
)

// Aggregate folds detections into one Dependency per name. Standard headers,
// quoted includes, and unresolved include macros are left out since they do
// not name a third-party package. Detections must already be sorted so the
// chosen version is stable.
func Aggregate(detections []types.Detection) []types.Dependency {
	byName := make(map[string]*types.Dependency)
	kinds := make(map[string]map[types.SourceKind]bool)
	files := make(map[string]map[string]bool)

	for _, d := range detections {
		name := DependencyName(d)
		if name == "" {
			continue
		}
		dep, ok := byName[name]
		if !ok {
			dep = &types.Dependency{Name: name}
			byName[name] = dep
			kinds[name] = make(map[types.SourceKind]bool)
			files[name] = make(map[string]bool)
		}
		dep.Occurrences++
		if dep.Version == "" && d.Version != "" {
			dep.Version = d.Version
		}
		if d.New {
			dep.New = true
		}
		kinds[name][d.SourceKind] = true
		files[name][d.FilePath] = true
	}

	deps := make([]types.Dependency, 0, len(byName))
	for name, dep := range byName {
		for k := range kinds[name] {
			dep.Kinds = append(dep.Kinds, k)
		}
		sort.Slice(dep.Kinds, func(i, j int) bool { return dep.Kinds[i] < dep.Kinds[j] })
		for f := range files[name] {
			dep.Files = append(dep.Files, f)
		}
		sort.Strings(dep.Files)
		deps = append(deps, *dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps
}

// DependencyName returns the package name a detection contributes to the
// aggregate, or "" when it does not name a third-party dependency.
// Include paths reduce to their first component without header extension:
// boost/asio.hpp -> boost, zlib.h -> zlib.
func DependencyName(d types.Detection) string {
	if d.SourceKind != types.KindInclude {
		return d.Name
	}
	if d.Standard || d.IncludeStyle == types.IncludeQuoted {
		return ""
	}
	if d.IncludeStyle == types.IncludeMacro && isMacroName(d.Name) {
		return ""
	}
	name := d.Name
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

func isMacroName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
