// Package buildinfo carries the version stamped at link time with
// -ldflags "-X example.com/your_project/facility-location/internal/buildinfo.Version=...".
package buildinfo

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

// Info returns the build metadata as printed by the version command.
func Info() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
}

// String is the version echoed in every output document.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + "+" + Commit
}
