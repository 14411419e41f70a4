package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/stepwise/internal/intake"
)

func newExtractCmd() *cobra.Command {
	var pdftotext bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text stepwise would send to the model for a homework file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := intake.Extract(f, args[0], intake.Options{PDFFallbackPdftotext: pdftotext})
			if err != nil {
				return err
			}
			return outputTo(cmd.OutOrStdout(), map[string]any{
				"title": doc.Title,
				"pages": doc.Pages,
				"text":  doc.Text,
			})
		},
	}
	cmd.Flags().BoolVar(&pdftotext, "pdftotext", true, "fall back to pdftotext for PDFs with no text layer")
	return cmd
}
