package main

import (
	"github.com/spf13/cobra"

	"github.com/v0xg/hatter/internal/compiler"
)

func newCompileCmd() *cobra.Command {
	var target, output string
	cmd := &cobra.Command{
		Use:   "compile <commands.json>",
		Short: "Compile a command plan into a standalone script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := readPlan(args[0])
			if err != nil {
				return err
			}
			eng, _, _, err := newEngine()
			if err != nil {
				return err
			}
			script, err := eng.Compile(plan, compiler.Target(target))
			if err != nil {
				return err
			}
			return writeOutput(output, []byte(script))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Script target: go or puppeteer (default: engine.script_target)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
