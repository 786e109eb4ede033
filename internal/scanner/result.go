package scanner

// This package re-exports types from internal/types for convenience.
// The canonical types live in internal/types to avoid import cycles.

import "github.com/garagon/cppdeps/internal/types"

type (
	SourceKind   = types.SourceKind
	IncludeStyle = types.IncludeStyle
	Detection    = types.Detection
	Dependency   = types.Dependency
	Warning      = types.Warning
	WarningKind  = types.WarningKind
	Report       = types.Report
)

const (
	KindCMakeFindPackage  = types.KindCMakeFindPackage
	KindCMakeFetchContent = types.KindCMakeFetchContent
	KindConanRequires     = types.KindConanRequires
	KindVcpkgDependency   = types.KindVcpkgDependency
	KindInclude           = types.KindInclude
	KindVersionDefine     = types.KindVersionDefine
)

var ParseSourceKind = types.ParseSourceKind
