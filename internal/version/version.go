// Package version provides the build version
package version

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
)

// set by the linker:
// -ldflags "-X github.com/effective-security/xjwt/internal/version.commit=..."
var (
	version = "v0.0.0"
	commit  = ""
)

// Version of the build
type Version struct {
	Major   int
	Minor   int
	Patch   int
	Commit  string
	Runtime string
}

// String returns the version string
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Commit != "" {
		s += "-" + v.Commit
	}
	return s
}

// Current returns the current version
func Current() Version {
	v := parse(version)
	v.Commit = commit
	if info, ok := debug.ReadBuildInfo(); ok {
		v.Runtime = info.GoVersion
		if v.Commit == "" {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					v.Commit = s.Value[:7]
				}
			}
		}
	}
	return v
}

func parse(s string) Version {
	var v Version
	parts := strings.SplitN(strings.TrimPrefix(s, "v"), ".", 3)
	nums := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		p, _, _ = strings.Cut(p, "-")
		*nums[i], _ = strconv.Atoi(p)
	}
	return v
}
