// ABOUTME: Build identity for the tapmix recorder
// ABOUTME: Version is overridable at build time via -ldflags
package version

var (
	// Version is the semantic version, set via -ldflags at release time.
	Version = "0.1.0"

	// Product is the short product name used in logs and the monitor feed.
	Product = "tapmix"

	// Manufacturer identifies the publisher.
	Manufacturer = "Tapmix Audio"
)
