// ABOUTME: Version constants for the cinesnap binary
// ABOUTME: Version is overridden at build time through -ldflags
package version

// Version is the release version
var Version = "0.3.0"

const (
	// Product is the binary name
	Product = "cinesnap"

	// Manufacturer is the publisher shown by the version command
	Manufacturer = "Cinesnap"
)

// String returns the one-line version banner
func String() string {
	return Product + " " + Version + " (" + Manufacturer + ")"
}
