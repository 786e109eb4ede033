package types_test

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/garagon/cppdeps/internal/types"
	"github.com/stretchr/testify/require"
)

func TestParseSourceKind(t *testing.T) {
	tests := []struct {
		input string
		want  types.SourceKind
		err   bool
	}{
		{"cmake_find_package", types.KindCMakeFindPackage, false},
		{"CONAN_REQUIRES", types.KindConanRequires, false},
		{"  include ", types.KindInclude, false},
		{"vcpkg-dependency", types.KindVcpkgDependency, false},
		{"bazel", "", true},
	}
	for _, tt := range tests {
		got, err := types.ParseSourceKind(tt.input)
		if tt.err {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		}
	}
}

func TestReportMarshalJSON(t *testing.T) {
	r := types.Report{
		Tool:      types.ToolInfo{Name: "cppdeps", Version: "dev"},
		Root:      "/src",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "2026-01-02T03:04:05Z", raw["started_at"])
	require.Equal(t, float64(1500), raw["duration_ms"])
	require.Equal(t, []any{}, raw["detections"])
	require.Equal(t, []any{}, raw["dependencies"])
	require.Equal(t, []any{}, raw["warnings"])
}

func TestDetectionLineNumberOmitted(t *testing.T) {
	data, err := json.Marshal(types.Detection{SourceKind: types.KindVcpkgDependency, Name: "fmt"})
	require.NoError(t, err)
	require.NotContains(t, string(data), "line_number")
}

func TestInvalidRootError(t *testing.T) {
	err := error(&types.InvalidRootError{Path: "/nope", Err: os.ErrNotExist})
	require.True(t, errors.Is(err, types.ErrInvalidRoot))
	require.True(t, errors.Is(err, os.ErrNotExist))
	require.Contains(t, err.Error(), "/nope")

	notDir := error(&types.InvalidRootError{Path: "/file"})
	require.True(t, errors.Is(notDir, types.ErrInvalidRoot))
	require.Contains(t, notDir.Error(), "not a directory")
}
