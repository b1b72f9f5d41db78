// Package version reports the compgraph build version.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/compgraph/version.Version=0.3.0" ./cmd/compgraph
//
// Unset values fall back to the VCS stamps recorded by the Go toolchain.
package version
