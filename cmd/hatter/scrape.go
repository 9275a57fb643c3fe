package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newScrapeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "List the form fields a page renders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, _, err := newEngine()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "→ Scraping %s... ", args[0])
			res, err := eng.Scrape(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, "failed")
				return err
			}
			fmt.Fprintf(os.Stderr, "done (found %d fields)\n", len(res.Fields))

			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(output, append(data, '\n'))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
