package main

import (
	"os"
	"runtime/debug"

	"github.com/gigurra/cornwall-player/cmd/player"
)

func main() {
	if err := player.Cmd(appVersion()).Execute(); err != nil {
		os.Exit(1)
	}
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
