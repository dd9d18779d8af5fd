package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/masahif/focuscrawl/internal/cmd"
)

// Set with -ldflags "-X main.Version=... -X main.BuildTime=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd.SetVersionInfo(resolveVersion(), BuildTime)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "focuscrawl:", err)
		os.Exit(1)
	}
}

// resolveVersion falls back to the module version recorded by
// `go install module@version` when no version was stamped at link time
func resolveVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
