package verify

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Flags holds all command line options for the 'verify' command.
type Flags struct {
	PlanfileName          string
	EnvFile               string
	IgnoreMissingDigests  bool
	UpdateExistingDigests bool
	ExcludeDigests        bool
}

// NewFlags returns Flags after validating its fields. planfileName may
// not contain slashes.
func NewFlags(
	planfileName string,
	envFile string,
	ignoreMissingDigests bool,
	updateExistingDigests bool,
	excludeDigests bool,
) (*Flags, error) {
	if planfileName != "" {
		if err := validatePlanfileName(planfileName); err != nil {
			return nil, err
		}
	}

	return &Flags{
		PlanfileName:          planfileName,
		EnvFile:               envFile,
		IgnoreMissingDigests:  ignoreMissingDigests,
		UpdateExistingDigests: updateExistingDigests,
		ExcludeDigests:        excludeDigests,
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
