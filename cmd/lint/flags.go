package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Flags holds all command line options for the 'lint' command.
type Flags struct {
	BaseDir              string
	EnvFile              string
	ComposefilePaths     []string
	ComposefileGlobs     []string
	ComposefileRecursive bool
}

// NewFlags returns Flags after validating its fields.
//
// baseDir must be the current working directory or a sub directory.
// Absolute paths are not supported.
func NewFlags(
	baseDir string,
	envFile string,
	composefilePaths []string,
	composefileGlobs []string,
	composefileRecursive bool,
) (*Flags, error) {
	if baseDir != "" {
		if err := validateBaseDirectory(baseDir); err != nil {
			return nil, err
		}
	}

	if len(composefilePaths) != 0 {
		if err := validateManualPaths(baseDir, composefilePaths); err != nil {
			return nil, err
		}
	}

	if len(composefileGlobs) != 0 {
		if err := validateGlobs(composefileGlobs); err != nil {
			return nil, err
		}
	}

	return &Flags{
		BaseDir:              baseDir,
		EnvFile:              envFile,
		ComposefilePaths:     composefilePaths,
		ComposefileGlobs:     composefileGlobs,
		ComposefileRecursive: composefileRecursive,
	}, nil
}

func validateBaseDirectory(baseDir string) error {
	if filepath.IsAbs(baseDir) {
		return fmt.Errorf(
			"'%s' base-dir does not support absolute paths", baseDir,
		)
	}

	if strings.HasPrefix(filepath.Join(".", baseDir), "..") {
		return fmt.Errorf(
			"'%s' base-dir is outside the current working directory", baseDir,
		)
	}

	fileInfo, err := os.Stat(baseDir)
	if err != nil {
		return err
	}

	if mode := fileInfo.Mode(); !mode.IsDir() {
		return fmt.Errorf(
			"'%s' base-dir is not sub directory "+
				"of the current working directory",
			baseDir,
		)
	}

	return nil
}

func validateManualPaths(baseDir string, manualPaths []string) error {
	for _, path := range manualPaths {
		if filepath.IsAbs(path) {
			return fmt.Errorf(
				"'%s' input paths do not support absolute paths", path,
			)
		}

		path = filepath.Join(baseDir, path)

		if strings.HasPrefix(path, "..") {
			return fmt.Errorf(
				"'%s' is outside the current working directory", path,
			)
		}
	}

	return nil
}

func validateGlobs(globs []string) error {
	for _, glob := range globs {
		if filepath.IsAbs(glob) {
			return fmt.Errorf("'%s' globs do not support absolute paths", glob)
		}
	}

	return nil
}
