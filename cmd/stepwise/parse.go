package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/stepwise/internal/parser"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a raw model response",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "solve [file|-]",
		Short: "Parse a multi-problem solve response",
		Long: `Parse a solve response into problems. Reads from stdin when no file is
given or the file is "-". Unstructured input yields a single fallback problem
that carries the raw text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return outputTo(cmd.OutOrStdout(), parser.ParseSolveResponse(raw))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "improve [file|-]",
		Short: "Parse an improve response",
		Long: `Parse an improve response into an improved answer and steps. Exits non-zero
when the response has neither an IMPROVED_EXPLANATION nor an IMPROVED_ANSWER
section.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			res, err := parser.ParseImproveResponse(raw)
			if err != nil {
				return err
			}
			return outputTo(cmd.OutOrStdout(), res)
		},
	})

	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
