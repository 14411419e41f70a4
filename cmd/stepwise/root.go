package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var outputFormat string

	root := &cobra.Command{
		Use:   "stepwise",
		Short: "Parse model-written homework solutions into structured steps",
		Long: `Stepwise turns markdown homework answers written by a language model into
structured problems, explanations, steps and answers.

Responses use "### KEY" section headings and "#### Title" step headings.
Multiple problems are separated by ---PROBLEM_SEPARATOR---.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setOutputFormat(outputFormat)
	}

	root.AddCommand(newParseCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(versionCmd)
	return root
}
