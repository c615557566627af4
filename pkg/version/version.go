package version

// version is set at build time with
// -ldflags "-X github.com/cbodonnell/orderstone/pkg/version.version=v1.2.3"
var version = "dev"

// Get returns the build version of the server and client binaries.
func Get() string {
	return version
}
