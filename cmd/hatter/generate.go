package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/v0xg/hatter/internal/ai"
	"github.com/v0xg/hatter/internal/command"
)

func newGenerateCmd() *cobra.Command {
	var (
		provider string
		model    string
		output   string
		runAfter bool
		rf       runFlags
	)
	cmd := &cobra.Command{
		Use:   "generate <url> <prompt>",
		Short: "Scrape a page and ask an AI provider for a command plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, prompt := args[0], args[1]

			eng, cfg, _, err := newEngine()
			if err != nil {
				return err
			}
			if provider == "" {
				provider = cfg.AI.Provider
			}
			if model == "" {
				model = cfg.AI.Model
			}

			logVerbose("Starting hatter generate")
			logVerbose("  URL: %s", url)
			logVerbose("  Prompt: %s", prompt)
			logVerbose("  Provider: %s", provider)

			// Step 1: Scrape the page
			fmt.Printf("→ Scraping %s... ", url)
			page, err := eng.Scrape(cmd.Context(), url)
			if err != nil {
				fmt.Println("failed")
				return fmt.Errorf("scrape failed: %w", err)
			}
			fmt.Printf("done (found %d fields)\n", len(page.Fields))

			// Step 2: Generate the plan
			fmt.Printf("→ Generating command plan via %s... ", provider)
			p, err := ai.NewProvider(provider, model)
			if err != nil {
				fmt.Println("failed")
				return fmt.Errorf("AI provider init failed: %w", err)
			}
			plan, err := p.GeneratePlan(cmd.Context(), page, prompt)
			if err != nil {
				fmt.Println("failed")
				return fmt.Errorf("plan generation failed: %w", err)
			}
			fmt.Printf("done (%d commands)\n", len(plan.Commands))
			logCommands(plan.Commands)

			data, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("failed to write plan: %w", err)
				}
				fmt.Printf("✓ Plan saved to %s\n", output)
			} else if !runAfter {
				fmt.Println(string(data))
			}

			// Step 3: Optionally run it
			if !runAfter {
				return nil
			}
			return runPlan(cmd, eng, plan, rf)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "AI provider: claude, openai (default: ai.provider)")
	cmd.Flags().StringVar(&model, "model", "", "Specific model override")
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write the plan to")
	cmd.Flags().BoolVar(&runAfter, "run", false, "Run the generated plan")
	cmd.Flags().StringVar(&rf.screenshots, "screenshots", "", "With --run, directory for screenshots")
	cmd.Flags().StringVar(&rf.gif, "gif", "", "With --run, file for the replay GIF")
	return cmd
}

// logCommands prints the plan one step per line
func logCommands(cmds []command.Command) {
	for i, c := range cmds {
		fmt.Printf("  [%d] %s", i+1, c.Action())
		if d := c.Describe(); d != "" {
			fmt.Printf(" → %s", d)
		}
		fmt.Println()
	}
}
