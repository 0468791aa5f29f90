// Package buildinfo exposes build-time information injected via ldflags:
//
//	go build -ldflags "-X github.com/foxhorn/foxyserver/internal/infra/buildinfo.Version=v1.0.0"
//
// Values not injected fall back to what the Go toolchain recorded in the
// binary.
package buildinfo
