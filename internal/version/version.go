package version

// Version is the engine version configs are checked against. It is set at
// build time with
// -ldflags "-X github.com/rxtech-lab/argo-consensus/internal/version.Version=1.2.3"
// and "main" marks a development build.
var Version = "v0.3.0"

// GetVersion returns the engine version.
func GetVersion() string {
	return Version
}
