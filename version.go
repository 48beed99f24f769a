package plcbridge

import (
	"fmt"
	"runtime/debug"
)

const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0

	// VersionPrerelease is empty for stable releases.
	VersionPrerelease = ""
)

// opcuaModule is the OPC-UA stack whose version BuildInfo reports.
const opcuaModule = "github.com/gopcua/opcua"

// Version returns the semantic version string of the bridge.
func Version() string {
	v := fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
	if VersionPrerelease != "" {
		v += "-" + VersionPrerelease
	}
	return v
}

// ApplicationName is the name the bridge announces in its OPC-UA sessions.
func ApplicationName() string {
	return "plcbridge/" + Version()
}

// BuildInfo describes the running bridge binary.
type BuildInfo struct {
	Version      string `json:"version"`
	OPCUAVersion string `json:"opcuaVersion,omitempty"`
	GitCommit    string `json:"gitCommit,omitempty"`
	GitTag       string `json:"gitTag,omitempty"`
	BuildTime    string `json:"buildTime,omitempty"`
	GoVersion    string `json:"goVersion,omitempty"`
	Dirty        bool   `json:"dirty,omitempty"`
}

// GetBuildInfo returns the bridge version together with the VCS stamp and
// the OPC-UA stack version recorded by the Go toolchain, when available.
func GetBuildInfo() BuildInfo {
	bi, _ := debug.ReadBuildInfo()
	return buildInfoFrom(bi)
}

func buildInfoFrom(bi *debug.BuildInfo) BuildInfo {
	info := BuildInfo{Version: Version()}
	if bi == nil {
		return info
	}

	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
			if len(s.Value) > 7 {
				info.GitCommit = s.Value[:7]
			}
		case "vcs.time":
			info.BuildTime = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.GitTag = bi.Main.Version
	}

	for _, dep := range bi.Deps {
		if dep.Path != opcuaModule {
			continue
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		info.OPCUAVersion = dep.Version
		break
	}
	return info
}

func (b BuildInfo) String() string {
	s := "plcbridge " + b.Version

	if b.GitCommit != "" {
		s += " (commit: " + b.GitCommit
		if b.Dirty {
			s += "-dirty"
		}
		s += ")"
	}
	if b.GitTag != "" {
		s += " [" + b.GitTag + "]"
	}
	if b.OPCUAVersion != "" {
		s += " gopcua " + b.OPCUAVersion
	}
	if b.GoVersion != "" {
		s += " - " + b.GoVersion
	}
	return s
}
