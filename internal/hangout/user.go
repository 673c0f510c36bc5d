package hangout

import (
	"fmt"
	"regexp"
)

// Usernames become store key segments and NATS subject tokens, so they
// exclude ':' and '.' as well as the subject wildcards.
var usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateUsername checks that name is usable as a local or remote username.
func ValidateUsername(name string) error {
	if !usernameRegexp.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidUsername, name, usernameRegexp)
	}
	return nil
}
