// Package lint provides the "lint" command.
package lint

import (
	"errors"
	"fmt"
	"sort"

	cmd_plan "github.com/safe-waters/stack-plan/cmd/plan"
	"github.com/safe-waters/stack-plan/pkg/lint"
	"github.com/safe-waters/stack-plan/pkg/plan"
	"github.com/safe-waters/stack-plan/pkg/plan/collect"
	"github.com/safe-waters/stack-plan/pkg/plan/parse"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const namespace = "lint"

// NewLintCmd creates the command 'lint' used in 'docker stackplan lint'.
func NewLintCmd() (*cobra.Command, error) {
	lintCmd := &cobra.Command{
		Use:   "lint",
		Short: "Check compose service topologies for structural problems",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindPFlags(cmd, []string{
				"base-dir",
				"composefiles",
				"composefile-globs",
				"composefile-recursive",
				"env-file",
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

			collector, parser, err := SetupCollectorAndParser(flags)
			if err != nil {
				return err
			}

			allFindings, err := lintFindings(collector, parser)
			if err != nil {
				return err
			}

			var numErrors int

			for _, finding := range allFindings {
				fmt.Println(finding)

				if finding.Severity == lint.Error {
					numErrors++
				}
			}

			if numErrors != 0 {
				return fmt.Errorf("lint failed with '%d' error(s)", numErrors)
			}

			fmt.Println("successfully linted!")

			return nil
		},
	}
	lintCmd.Flags().String(
		"base-dir", ".", "Top level directory to collect compose files from",
	)
	lintCmd.Flags().StringSlice(
		"composefiles", []string{}, "Paths to docker-compose files",
	)
	lintCmd.Flags().StringSlice(
		"composefile-globs", []string{},
		"Glob pattern to select docker-compose files",
	)
	lintCmd.Flags().Bool(
		"composefile-recursive", false,
		"Recursively collect docker-compose files",
	)
	lintCmd.Flags().String(
		"env-file", ".env", "Path to .env file",
	)

	return lintCmd, nil
}

// SetupCollectorAndParser creates the path collector and topology parser
// configured for stack-plan's cli.
func SetupCollectorAndParser(
	flags *Flags,
) (plan.IPathCollector, plan.ITopologyParser, error) {
	if flags == nil {
		return nil, nil, errors.New("'flags' cannot be nil")
	}

	collector, err := collect.NewPathCollector(
		flags.BaseDir, cmd_plan.DefaultComposefileNames,
		flags.ComposefilePaths, flags.ComposefileGlobs,
		flags.ComposefileRecursive,
	)
	if err != nil {
		return nil, nil, err
	}

	parser, err := parse.NewTopologyParser(parse.NewDockerfileParser())
	if err != nil {
		return nil, nil, err
	}

	return collector, parser, nil
}

func lintFindings(
	collector plan.IPathCollector,
	parser plan.ITopologyParser,
) ([]*lint.Finding, error) {
	done := make(chan struct{})
	defer close(done)

	paths := collector.CollectPaths(done)
	topologies := parser.ParseFiles(paths, done)
	findings := lint.NewLinter().LintTopologies(topologies, done)

	var allFindings []*lint.Finding

	for finding := range findings {
		allFindings = append(allFindings, finding)
	}

	sort.Slice(allFindings, func(i int, j int) bool {
		if allFindings[i].Path != allFindings[j].Path {
			return allFindings[i].Path < allFindings[j].Path
		}

		if allFindings[i].Service != allFindings[j].Service {
			return allFindings[i].Service < allFindings[j].Service
		}

		return allFindings[i].Message < allFindings[j].Message
	})

	return allFindings, nil
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
	)

	return NewFlags(
		baseDir, envFile,
		composefilePaths, composefileGlobs, composefileRecursive,
	)
}
