package plan

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/safe-waters/stack-plan/pkg/plan"
	"github.com/safe-waters/stack-plan/pkg/plan/collect"
	"github.com/safe-waters/stack-plan/pkg/plan/graph"
	"github.com/safe-waters/stack-plan/pkg/plan/parse"
	"github.com/safe-waters/stack-plan/pkg/plan/update"
)

// DefaultComposefileNames are the file names collected when no paths or
// globs are specified, or when recursively searching directories.
var DefaultComposefileNames = []string{
	"docker-compose.yml", "docker-compose.yaml",
	"compose.yml", "compose.yaml",
}

// DefaultPathCollector creates an IPathCollector configured by flags.
func DefaultPathCollector(flags *Flags) (plan.IPathCollector, error) {
	if flags == nil {
		return nil, errors.New("'flags' cannot be nil")
	}

	return collect.NewPathCollector(
		flags.BaseDir, DefaultComposefileNames,
		flags.ComposefilePaths, flags.ComposefileGlobs,
		flags.ComposefileRecursive,
	)
}

// DefaultTopologyParser creates an ITopologyParser that resolves base
// images for services with build sections from their Dockerfiles.
func DefaultTopologyParser(flags *Flags) (plan.ITopologyParser, error) {
	if flags == nil {
		return nil, errors.New("'flags' cannot be nil")
	}

	return parse.NewTopologyParser(parse.NewDockerfileParser())
}

// DefaultSequencer creates an ISequencer to compute startup stages.
func DefaultSequencer(flags *Flags) (plan.ISequencer, error) {
	if flags == nil {
		return nil, errors.New("'flags' cannot be nil")
	}

	return graph.NewSequencer(), nil
}

// DefaultDigestUpdater creates an IDigestUpdater configured by flags. If
// a Planfile already exists, its digests are reused rather than queried
// from registries again, unless the "update-existing-digests" flag is set.
func DefaultDigestUpdater(flags *Flags) (plan.IDigestUpdater, error) {
	if flags == nil {
		return nil, errors.New("'flags' cannot be nil")
	}

	existingDigests := map[string]string{}

	if !flags.UpdateExistingDigests {
		var err error

		existingDigests, err = existingPlanfileDigests(flags.PlanfileName)
		if err != nil {
			return nil, err
		}
	}

	return update.NewDigestUpdater(
		update.NewDigestRequester(), flags.IgnoreMissingDigests,
		flags.UpdateExistingDigests, existingDigests,
	)
}

// DefaultLoadEnv loads .env files based on the path. If a path does not
// exist and that path is not ".env", an error will occur.
func DefaultLoadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if path == ".env" {
			return nil
		}

		return err
	}

	return godotenv.Load(path)
}

func existingPlanfileDigests(planfileName string) (map[string]string, error) {
	if planfileName == "" {
		return map[string]string{}, nil
	}

	planfileReader, err := os.Open(planfileName)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}

		return nil, err
	}
	defer planfileReader.Close()

	var planfile plan.Planfile
	if err := json.NewDecoder(planfileReader).Decode(&planfile); err != nil {
		return nil, err
	}

	return planfile.ImageDigests(), nil
}
