// Package verify provides the "verify" command.
package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"sort"

	cmd_plan "github.com/safe-waters/stack-plan/cmd/plan"
	"github.com/safe-waters/stack-plan/pkg/plan"
	"github.com/safe-waters/stack-plan/pkg/verify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const namespace = "verify"

// NewVerifyCmd creates the command 'verify' used in
// 'docker stackplan verify'.
func NewVerifyCmd() (*cobra.Command, error) {
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify that a Planfile is up-to-date",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindPFlags(cmd, []string{
				"planfile-name",
				"env-file",
				"ignore-missing-digests",
				"update-existing-digests",
				"exclude-digests",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := parseFlags()
			if err != nil {
				return err
			}

			if err := cmd_plan.DefaultLoadEnv(flags.EnvFile); err != nil {
				return err
			}

			verifier, err := SetupVerifier(flags)
			if err != nil {
				return err
			}

			reader, err := os.Open(flags.PlanfileName)
			if err != nil {
				return err
			}
			defer reader.Close()

			err = verifier.VerifyPlanfile(reader)
			if err == nil {
				fmt.Println("successfully verified planfile!")
			}

			return err
		},
	}
	verifyCmd.Flags().String(
		"planfile-name", "stack-plan.json", "Planfile to read from",
	)
	verifyCmd.Flags().String(
		"env-file", ".env", "Path to .env file",
	)
	verifyCmd.Flags().Bool(
		"ignore-missing-digests", false,
		"Do not fail if unable to find digests",
	)
	verifyCmd.Flags().Bool(
		"update-existing-digests", false,
		"Query registries for new digests even if they are recorded "+
			"in the Planfile",
	)
	verifyCmd.Flags().Bool(
		"exclude-digests", false,
		"Verify topologies without comparing digests",
	)

	return verifyCmd, nil
}

// SetupVerifier creates a Verifier configured for stack-plan's cli. The
// compose file paths to regenerate are taken from the existing Planfile.
func SetupVerifier(flags *Flags) (*verify.Verifier, error) {
	if flags == nil {
		return nil, errors.New("'flags' cannot be nil")
	}

	existingByt, err := ioutil.ReadFile(flags.PlanfileName)
	if err != nil {
		return nil, err
	}

	var existingPlanfile plan.Planfile
	if err = json.Unmarshal(existingByt, &existingPlanfile); err != nil {
		return nil, err
	}

	composefilePaths := make(
		[]string, 0, len(existingPlanfile.Composefiles),
	)

	for path := range existingPlanfile.Composefiles {
		composefilePaths = append(composefilePaths, path)
	}

	sort.Strings(composefilePaths)

	plannerFlags, err := cmd_plan.NewFlags(
		".", flags.PlanfileName, flags.EnvFile,
		composefilePaths, nil, false,
		flags.IgnoreMissingDigests, flags.UpdateExistingDigests,
	)
	if err != nil {
		return nil, err
	}

	planner, err := cmd_plan.SetupPlanner(plannerFlags)
	if err != nil {
		return nil, err
	}

	return verify.NewVerifier(
		planner,
		&verify.TopologyDifferentiator{ExcludeDigests: flags.ExcludeDigests},
	)
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
		planfileName = viper.GetString(
			fmt.Sprintf("%s.%s", namespace, "planfile-name"),
		)
		envFile = viper.GetString(
			fmt.Sprintf("%s.%s", namespace, "env-file"),
		)
		ignoreMissingDigests = viper.GetBool(
			fmt.Sprintf("%s.%s", namespace, "ignore-missing-digests"),
		)
		updateExistingDigests = viper.GetBool(
			fmt.Sprintf("%s.%s", namespace, "update-existing-digests"),
		)
		excludeDigests = viper.GetBool(
			fmt.Sprintf("%s.%s", namespace, "exclude-digests"),
		)
	)

	return NewFlags(
		planfileName, envFile,
		ignoreMissingDigests, updateExistingDigests, excludeDigests,
	)
}
