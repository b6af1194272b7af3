//go:build !windows

package platform

import "fmt"

// New returns the production platform. Only Windows is supported; the
// non-Windows build exists for development and the test suite, which use
// the Fake.
func New() (Platform, error) {
	return nil, fmt.Errorf("scrollwm manages native Windows windows; this build targets an unsupported OS")
}
