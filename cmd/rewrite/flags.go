package rewrite

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Flags holds all command line options for the 'rewrite' command.
type Flags struct {
	PlanfileName string
	TempDir      string
	ExcludeTags  bool
}

// NewFlags returns Flags after validating its fields. planfileName may
// not contain slashes.
func NewFlags(
	planfileName string,
	tempDir string,
	excludeTags bool,
) (*Flags, error) {
	if planfileName != "" {
		if err := validatePlanfileName(planfileName); err != nil {
			return nil, err
		}
	}

	return &Flags{
		PlanfileName: planfileName,
		TempDir:      tempDir,
		ExcludeTags:  excludeTags,
	}, nil
}

func validatePlanfileName(planfileName string) error {
	if filepath.IsAbs(planfileName) {
		return fmt.Errorf(
			"'%s' planfile-name does not support absolute paths", planfileName,
		)
	}

	planfileName = filepath.Join(".", planfileName)

	if strings.ContainsAny(planfileName, `/\`) {
		return fmt.Errorf(
			"'%s' planfile-name cannot contain slashes", planfileName,
		)
	}

	return nil
}
