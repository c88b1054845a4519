package workdir

import (
	"errors"
	"fmt"
	"os"
)

// Within runs fn with dir as the process working directory and restores
// the previous directory afterwards, whether fn returns an error or panics.
// An empty dir runs fn in place.
func Within(dir string, fn func() error) (err error) {
	if dir == "" {
		return fn()
	}

	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("entering %s: %w", dir, err)
	}
	defer func() {
		if cerr := os.Chdir(prev); cerr != nil {
			err = errors.Join(err, fmt.Errorf("restoring %s: %w", prev, cerr))
		}
	}()

	return fn()
}
