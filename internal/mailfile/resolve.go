package mailfile

import "path/filepath"

// Resolve turns an attachment token from the CSV into the path to check and
// attach. Absolute tokens pass through verbatim, relative ones are joined to
// base. With no base configured the token is used as-is relative to the
// working directory.
//
// The row validator and the message assembler both go through this function
// so that a path that validated clean is the same path that gets attached.
func Resolve(token, base string) string {
	if filepath.IsAbs(token) {
		return token
	}
	if base == "" {
		return token
	}
	return filepath.Join(base, token)
}
