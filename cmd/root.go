// Package cmd provides stack-plan's cli.
package cmd

import (
	"fmt"

	cmd_lint "github.com/safe-waters/stack-plan/cmd/lint"
	cmd_plan "github.com/safe-waters/stack-plan/cmd/plan"
	cmd_rewrite "github.com/safe-waters/stack-plan/cmd/rewrite"
	cmd_stackplan "github.com/safe-waters/stack-plan/cmd/stackplan"
	cmd_verify "github.com/safe-waters/stack-plan/cmd/verify"
	cmd_version "github.com/safe-waters/stack-plan/cmd/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd creates the root command for stack-plan.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docker",
		Short: "Root command for stack-plan",
	}

	return rootCmd
}

// Execute creates all of stack-plan's commands, adds appropriate commands
// to each other, and executes the root command.
func Execute() error {
	if err := initViper(); err != nil {
		return err
	}

	rootCmd := NewRootCmd()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	stackplanCmd := cmd_stackplan.NewStackplanCmd()
	versionCmd := cmd_version.NewVersionCmd()

	planCmd, err := cmd_plan.NewPlanCmd()
	if err != nil {
		return err
	}

	lintCmd, err := cmd_lint.NewLintCmd()
	if err != nil {
		return err
	}

	verifyCmd, err := cmd_verify.NewVerifyCmd()
	if err != nil {
		return err
	}

	rewriteCmd, err := cmd_rewrite.NewRewriteCmd()
	if err != nil {
		return err
	}

	rootCmd.AddCommand(stackplanCmd)
	stackplanCmd.AddCommand(
		[]*cobra.Command{
			versionCmd, planCmd, lintCmd, verifyCmd, rewriteCmd,
		}...,
	)

	if err := rootCmd.Execute(); err != nil {
		return err
	}

	return nil
}

// initViper reads configuration values for stack-plan from a config
// file, if it exists. Otherwise, stack-plan will fall back to command line
// flags.
func initViper() error {
	const cfgFilePrefix = ".stack-plan"

	// works with a variety of files such as .stack-plan.[yaml|json|toml] etc.
	viper.SetConfigName(cfgFilePrefix)
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("malformed %s file: %v", cfgFilePrefix, err)
		}
	}

	return nil
}
