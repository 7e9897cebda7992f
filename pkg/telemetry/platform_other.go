//go:build !unix

package telemetry

// kernelInfo is unavailable off unix.
func kernelInfo() (release, version string) {
	return "", ""
}
