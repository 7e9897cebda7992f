package telemetry

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// ModulePath is this module's import path, used to find its version in the
// host binary's build info.
const ModulePath = "github.com/fyrsmithlabs/crewtrace"

// Platform describes the host machine. It is opt-in data.
type Platform struct {
	Name    string // e.g. "linux-6.8.0-amd64"
	Release string // kernel release
	System  string // runtime.GOOS
	Version string // kernel version string
	CPUs    int
}

// PlatformFunc returns the platform description. Tests replace it.
type PlatformFunc func() Platform

var (
	platformOnce   sync.Once
	cachedPlatform Platform
)

// CurrentPlatform describes the running machine. The result is computed
// once per process.
func CurrentPlatform() Platform {
	platformOnce.Do(func() {
		release, version := kernelInfo()
		name := runtime.GOOS
		if release != "" {
			name += "-" + release
		}
		name += "-" + runtime.GOARCH
		cachedPlatform = Platform{
			Name:    name,
			Release: release,
			System:  runtime.GOOS,
			Version: version,
			CPUs:    runtime.NumCPU(),
		}
	})
	return cachedPlatform
}

// LibraryVersion returns the version of this module as linked into the
// running binary, or "dev".
func LibraryVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Path == ModulePath {
		return cleanVersion(info.Main.Version)
	}
	for _, dep := range info.Deps {
		if dep.Path == ModulePath {
			if dep.Replace != nil {
				return cleanVersion(dep.Replace.Version)
			}
			return cleanVersion(dep.Version)
		}
	}
	return "dev"
}

func cleanVersion(v string) string {
	if v == "" || v == "(devel)" {
		return "dev"
	}
	return strings.TrimPrefix(v, "v")
}
