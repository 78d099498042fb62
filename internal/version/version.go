// Package version holds the cloudrole build version.
package version

// Version is overridden at build time with
// -ldflags "-X github.com/NielsdaWheelz/cloudrole/internal/version.Version=v1.2.3".
var Version = "dev"
