package cli

import (
	"errors"

	"github.com/mrlokans/bookfinder/internal/search"
)

// ExitCode maps a command error to a process exit status: 2 for invalid
// search parameters, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, search.ErrValidation):
		return 2
	default:
		return 1
	}
}
