// Package version exposes the build-time version stamp.
package version

// version is injected via -ldflags at build time. It stays empty for
// plain go build and go test binaries.
var version string

// Value returns the stamped version, or the empty string when the binary
// was built without one.
func Value() string {
	return version
}
