// Package version reports the build identity of the jmapc binary.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/jmap"

// buildVersion is set via -ldflags "-X pkt.systems/jmap/internal/version.buildVersion=...".
var buildVersion = ""

// Info describes the running build.
type Info struct {
	Module   string `json:"module" yaml:"module"`
	Version  string `json:"version" yaml:"version"`
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`
	Time     string `json:"time,omitempty" yaml:"time,omitempty"`
	Dirty    bool   `json:"dirty,omitempty" yaml:"dirty,omitempty"`
}

// Read collects build metadata. Missing build info yields the defaults.
func Read() Info {
	out := Info{Module: defaultModule, Version: "v0.0.0-unknown"}
	info, ok := debug.ReadBuildInfo()
	if ok {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			out.Module = path
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				out.Revision = setting.Value
			case "vcs.time":
				out.Time = setting.Value
			case "vcs.modified":
				out.Dirty = setting.Value == "true"
			}
		}
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			out.Version = v
		} else if v := out.pseudo(); v != "" {
			out.Version = v
		}
	}
	if v := strings.TrimSpace(buildVersion); v != "" {
		out.Version = v
	}
	return out
}

// Current returns the best available version string.
func Current() string {
	return Read().Version
}

// Module returns the module path from build info when available.
func Module() string {
	return Read().Module
}

func (i Info) pseudo() string {
	if i.Revision == "" || i.Time == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, i.Time)
	if err != nil {
		return ""
	}
	rev := i.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	ver := "v0.0.0-" + parsed.UTC().Format("20060102150405") + "-" + rev
	if i.Dirty {
		ver += "+dirty"
	}
	return ver
}
