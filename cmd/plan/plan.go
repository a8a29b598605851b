// Package plan provides the "plan" command.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/safe-waters/stack-plan/pkg/plan"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const namespace = "plan"

// NewPlanCmd creates the command 'plan' used in 'docker stackplan plan'.
func NewPlanCmd() (*cobra.Command, error) {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a Planfile recording compose service topologies",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindPFlags(cmd, []string{
				"base-dir",
				"composefiles",
				"composefile-globs",
				"composefile-recursive",
				"planfile-name",
				"env-file",
				"ignore-missing-digests",
				"update-existing-digests",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := parseFlags()
			if err != nil {
				return err
			}

			if err := DefaultLoadEnv(flags.EnvFile); err != nil {
				return err
			}

			planner, err := SetupPlanner(flags)
			if err != nil {
				return err
			}

			var planfileByt bytes.Buffer

			if err := planner.GeneratePlanfile(&planfileByt); err != nil {
				return err
			}

			planfileContents := planfileByt.Bytes()

			if len(planfileContents) == 0 {
				return errors.New("no compose files found")
			}

			writer, err := os.Create(flags.PlanfileName)
			if err != nil {
				return err
			}
			defer writer.Close()

			_, err = writer.Write(planfileContents)
			if err == nil {
				fmt.Println("successfully generated planfile!")
			}

			return err
		},
	}
	planCmd.Flags().String(
		"base-dir", ".", "Top level directory to collect compose files from",
	)
	planCmd.Flags().StringSlice(
		"composefiles", []string{}, "Paths to docker-compose files",
	)
	planCmd.Flags().StringSlice(
		"composefile-globs", []string{},
		"Glob pattern to select docker-compose files",
	)
	planCmd.Flags().Bool(
		"composefile-recursive", false,
		"Recursively collect docker-compose files",
	)
	planCmd.Flags().String(
		"planfile-name", "stack-plan.json",
		"Planfile name to be output in the current working directory",
	)
	planCmd.Flags().String(
		"env-file", ".env", "Path to .env file",
	)
	planCmd.Flags().Bool(
		"ignore-missing-digests", false,
		"Do not fail if unable to find digests",
	)
	planCmd.Flags().Bool(
		"update-existing-digests", false,
		"Query registries for new digests even if they are recorded "+
			"in an existing Planfile",
	)

	return planCmd, nil
}

// SetupPlanner creates a Planner configured for stack-plan's cli.
func SetupPlanner(flags *Flags) (plan.IPlanner, error) {
	if flags == nil {
		return nil, errors.New("'flags' cannot be nil")
	}

	collector, err := DefaultPathCollector(flags)
	if err != nil {
		return nil, err
	}

	parser, err := DefaultTopologyParser(flags)
	if err != nil {
		return nil, err
	}

	sequencer, err := DefaultSequencer(flags)
	if err != nil {
		return nil, err
	}

	updater, err := DefaultDigestUpdater(flags)
	if err != nil {
		return nil, err
	}

	return plan.NewPlanner(collector, parser, sequencer, updater)
}

func bindPFlags(cmd *cobra.Command, flagNames []string) error {
	for _, name := range flagNames {
		if err := viper.BindPFlag(
			fmt.Sprintf("%s.%s", namespace, name), cmd.Flags().Lookup(name),
		); err != nil {
			return err
		}
	}

	return nil
}

func parseFlags() (*Flags, error) {
	var (
		baseDir = viper.GetString(
			fmt.Sprintf("%s.%s", namespace, "base-dir"),
		)
		planfileName = viper.GetString(
			fmt.Sprintf("%s.%s", namespace, "planfile-name"),
		)
		envFile = viper.GetString(
			fmt.Sprintf("%s.%s", namespace, "env-file"),
		)
		composefilePaths = viper.GetStringSlice(
			fmt.Sprintf("%s.%s", namespace, "composefiles"),
		)
		composefileGlobs = viper.GetStringSlice(
			fmt.Sprintf("%s.%s", namespace, "composefile-globs"),
		)
		composefileRecursive = viper.GetBool(
			fmt.Sprintf("%s.%s", namespace, "composefile-recursive"),
		)
		ignoreMissingDigests = viper.GetBool(
			fmt.Sprintf("%s.%s", namespace, "ignore-missing-digests"),
		)
		updateExistingDigests = viper.GetBool(
			fmt.Sprintf("%s.%s", namespace, "update-existing-digests"),
		)
	)

	return NewFlags(
		baseDir, planfileName, envFile,
		composefilePaths, composefileGlobs, composefileRecursive,
		ignoreMissingDigests, updateExistingDigests,
	)
}
