// Package rewrite provides the "rewrite" command.
package rewrite

import (
	"errors"
	"fmt"
	"os"

	"github.com/safe-waters/stack-plan/pkg/rewrite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const namespace = "rewrite"

// NewRewriteCmd creates the command 'rewrite' used in
// 'docker stackplan rewrite'.
func NewRewriteCmd() (*cobra.Command, error) {
	rewriteCmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite compose files to use image digests from a Planfile",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindPFlags(cmd, []string{
				"planfile-name",
				"tempdir",
				"exclude-tags",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := parseFlags()
			if err != nil {
				return err
			}

			rewriter, err := SetupRewriter(flags)
			if err != nil {
				return err
			}

			reader, err := os.Open(flags.PlanfileName)
			if err != nil {
				return err
			}
			defer reader.Close()

			err = rewriter.RewritePlanfile(reader, flags.TempDir)
			if err == nil {
				fmt.Println("successfully rewrote files!")
			}

			return err
		},
	}
	rewriteCmd.Flags().String(
		"planfile-name", "stack-plan.json", "Planfile to read from",
	)
	rewriteCmd.Flags().String(
		"tempdir", "",
		"Directory where a temporary directory will be created/deleted "+
			"during a rewrite transaction",
	)
	rewriteCmd.Flags().Bool(
		"exclude-tags", false, "Exclude image tags from rewritten files",
	)

	return rewriteCmd, nil
}

// SetupRewriter creates a Rewriter configured for stack-plan's cli.
func SetupRewriter(flags *Flags) (*rewrite.Rewriter, error) {
	if flags == nil {
		return nil, errors.New("'flags' cannot be nil")
	}

	writer := &rewrite.ComposefileWriter{ExcludeTags: flags.ExcludeTags}

	return rewrite.NewRewriter(writer, &rewrite.Renamer{})
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
		tempDir = viper.GetString(
			fmt.Sprintf("%s.%s", namespace, "tempdir"),
		)
		excludeTags = viper.GetBool(
			fmt.Sprintf("%s.%s", namespace, "exclude-tags"),
		)
	)

	return NewFlags(planfileName, tempDir, excludeTags)
}
