package plcbridge

import (
	"encoding/json"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "0.1.0", Version())
}

func TestApplicationName(t *testing.T) {
	assert.Equal(t, "plcbridge/"+Version(), ApplicationName())
}

func TestBuildInfoFrom(t *testing.T) {
	assert.Equal(t, BuildInfo{Version: Version()}, buildInfoFrom(nil))

	info := buildInfoFrom(&debug.BuildInfo{
		GoVersion: "go1.24.1",
		Main:      debug.Module{Path: "github.com/robobar/plcbridge", Version: "(devel)"},
		Deps: []*debug.Module{
			{Path: "github.com/gorilla/websocket", Version: "v1.5.3"},
			{Path: "github.com/gopcua/opcua", Version: "v0.5.3"},
		},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2024-03-15T14:30:45Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	assert.Equal(t, BuildInfo{
		Version:      Version(),
		OPCUAVersion: "v0.5.3",
		GitCommit:    "0123456",
		BuildTime:    "2024-03-15T14:30:45Z",
		GoVersion:    "go1.24.1",
		Dirty:        true,
	}, info, "devel builds carry no tag")
}

func TestBuildInfoFromReplacedStack(t *testing.T) {
	info := buildInfoFrom(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.1.0"},
		Deps: []*debug.Module{{
			Path:    "github.com/gopcua/opcua",
			Version: "v0.5.3",
			Replace: &debug.Module{Path: "github.com/robobar/opcua", Version: "v0.5.4-robobar"},
		}},
	})
	assert.Equal(t, "v0.5.4-robobar", info.OPCUAVersion)
	assert.Equal(t, "v0.1.0", info.GitTag)
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	assert.Equal(t, Version(), info.Version)
	assert.True(t, strings.HasPrefix(info.String(), "plcbridge "+Version()))
}

func TestBuildInfoString(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{
			name: "basic version",
			info: BuildInfo{Version: "0.1.0"},
			want: "plcbridge 0.1.0",
		},
		{
			name: "with dirty commit",
			info: BuildInfo{Version: "0.1.0", GitCommit: "abc1234", Dirty: true},
			want: "plcbridge 0.1.0 (commit: abc1234-dirty)",
		},
		{
			name: "full info",
			info: BuildInfo{
				Version:      "0.1.0",
				OPCUAVersion: "v0.5.3",
				GitCommit:    "abc1234",
				GitTag:       "v0.1.0",
				GoVersion:    "go1.24",
			},
			want: "plcbridge 0.1.0 (commit: abc1234) [v0.1.0] gopcua v0.5.3 - go1.24",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestBuildInfoJSONOmitsEmpty(t *testing.T) {
	raw, err := json.Marshal(BuildInfo{Version: "0.1.0"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"0.1.0"}`, string(raw))
}
