// Package appversion reports the folderwatch build version.
package appversion

import "runtime/debug"

// version is set at build time via -ldflags "-X folderwatch/internal/appversion.version=...".
var version = "" //nolint:gochecknoglobals // ldflags requires package-level var

// String returns the ldflags version, falling back to the module version
// recorded by the Go toolchain, then "dev".
func String() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
