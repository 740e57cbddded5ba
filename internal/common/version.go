package common

// Version and build stamp, overridden via -ldflags at build time.
var (
	Version = "dev"
	Build   = "unknown"
)

// GetVersion returns the version string.
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp.
func GetBuild() string {
	return Build
}
