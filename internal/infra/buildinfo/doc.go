// Package buildinfo exposes build-time version information for the blueis
// binaries. Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/blueis/internal/infra/buildinfo.Version=v0.3.0"
package buildinfo
