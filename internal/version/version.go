// Package version carries build metadata, set with -ldflags at release time:
//
//	go build -ldflags "-X github.com/doeshing/askpage-go/internal/version.Version=v0.3.0"
package version

var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)
