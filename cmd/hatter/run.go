package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/engine"
	"github.com/v0xg/hatter/internal/replay"
)

type runFlags struct {
	screenshots string
	script      string
	gif         string
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run <commands.json>",
		Short: "Execute a command plan in a browser",
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
			return runPlan(cmd, eng, plan, f)
		},
	}
	cmd.Flags().StringVar(&f.screenshots, "screenshots", "", "Directory to write captured screenshots to")
	cmd.Flags().StringVar(&f.script, "script", "", "File to write the compiled script to")
	cmd.Flags().StringVar(&f.gif, "gif", "", "File to write a replay GIF of the screenshots to")
	return cmd
}

// runPlan executes plan and writes the requested artifacts. A failed run
// still writes them before returning an error.
func runPlan(cmd *cobra.Command, eng *engine.Engine, plan *command.Plan, f runFlags) error {
	name := plan.TestName
	if name == "" {
		name = "test"
	}
	fmt.Printf("→ Running %s (%d commands)... ", name, len(plan.Commands))
	res, err := eng.Run(cmd.Context(), plan)
	if err != nil {
		fmt.Println("failed")
		return err
	}
	if res.Success {
		fmt.Printf("passed in %dms\n", res.ExecutionTime)
	} else {
		fmt.Printf("failed after %dms\n", res.ExecutionTime)
		fmt.Printf("  %s\n", res.Error)
	}
	logVerbose("  run id: %s", res.RunID)

	if f.screenshots != "" {
		if err := writeScreenshots(f.screenshots, res); err != nil {
			return err
		}
	}
	if f.script != "" {
		if err := os.WriteFile(f.script, []byte(res.Script), 0o644); err != nil {
			return fmt.Errorf("failed to write script: %w", err)
		}
		fmt.Printf("✓ Script saved to %s\n", f.script)
	}
	if f.gif != "" && len(res.Screenshots) > 0 {
		fmt.Printf("→ Generating GIF (%d frames)... ", len(res.Screenshots))
		size, err := replay.WriteFile(f.gif, res.Report, replay.DefaultOptions())
		if err != nil {
			fmt.Println("failed")
			return fmt.Errorf("GIF generation failed: %w", err)
		}
		fmt.Println("done")
		fmt.Printf("✓ Saved to %s (%.1f MB)\n", f.gif, float64(size)/(1024*1024))
	}

	if !res.Success {
		return fmt.Errorf("run %s failed: %s", res.RunID, res.Error)
	}
	return nil
}

func writeScreenshots(dir string, res *engine.RunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	for _, s := range res.Screenshots {
		data, err := s.PNG()
		if err != nil {
			return fmt.Errorf("screenshot %s: %w", s.Filename, err)
		}
		path := filepath.Join(dir, filepath.Base(s.Filename))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
		logVerbose("  [%s] %s", s.Type, path)
	}
	fmt.Printf("✓ %d screenshots saved to %s\n", len(res.Screenshots), dir)
	return nil
}
