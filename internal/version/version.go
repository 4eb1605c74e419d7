// Package version reports the build version of glkbridge.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	defaultModule  = "pkt.systems/glkbridge"
	unknownVersion = "v0.0.0-unknown"
)

// buildVersion is set via -ldflags "-X pkt.systems/glkbridge/internal/version.buildVersion=...".
var buildVersion = ""

// Current returns the linker-provided version, the module version, or a
// pseudo-version from VCS stamping, in that order.
func Current() string {
	if v := strings.TrimSpace(buildVersion); v != "" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknownVersion
	}
	if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
		return v
	}
	if v := vcsVersion(info.Settings); v != "" {
		return v
	}
	return unknownVersion
}

// Module returns the main module path.
func Module() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
		return info.Main.Path
	}
	return defaultModule
}

// Summary is the line printed by the version command and the serve banner.
func Summary() string {
	return fmt.Sprintf("glkbridge %s (%s, %s %s/%s)", Current(), Module(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// vcsVersion builds v0.0.0-<commit time>-<revision>, marked +dirty for a
// modified tree.
func vcsVersion(settings []debug.BuildSetting) string {
	values := make(map[string]string, len(settings))
	for _, setting := range settings {
		values[setting.Key] = setting.Value
	}
	revision := values["vcs.revision"]
	committed, err := time.Parse(time.RFC3339, values["vcs.time"])
	if revision == "" || err != nil {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := "v0.0.0-" + committed.UTC().Format("20060102150405") + "-" + revision
	if values["vcs.modified"] == "true" {
		v += "+dirty"
	}
	return v
}
