package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kiln/internal/config"
	"kiln/internal/frames"
	"kiln/internal/services/blender"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <scene.blend>",
		Short: "Probe a scene and print its render plan without queueing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if _, err := os.Stat(absPath); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("scene file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect scene file: %w", err)
			}

			settings, err := config.LoadBlender(cfg.Paths.BlenderConfig)
			if err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return fmt.Errorf("renderer not configured (run 'kiln blender set-path <path>'): %w", err)
			}

			client, err := blender.New(settings.BlenderPath, cfg.Render.ProbeTimeout)
			if err != nil {
				return fmt.Errorf("build renderer client: %w", err)
			}

			result, err := client.Probe(cmd.Context(), absPath)
			if err != nil {
				return fmt.Errorf("probe scene: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, warning := range result.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}

			// Probe is a read-only diagnostic: never create the output
			// directory, just report the resume plan when it exists.
			var plan *frames.Plan
			if info, statErr := os.Stat(result.OutputDir); statErr == nil && info.IsDir() {
				inspector := frames.NewInspector(cfg.Render.FilenamePrefix, result.ImageFormat)
				if p, planErr := inspector.Plan(result.OutputDir, result.StartFrame, result.EndFrame); planErr == nil {
					plan = &p
				}
			}

			if ctx.JSONMode() {
				payload := map[string]any{
					"scene_path":   absPath,
					"start_frame":  result.StartFrame,
					"end_frame":    result.EndFrame,
					"output_dir":   result.OutputDir,
					"image_format": result.ImageFormat,
				}
				if plan != nil {
					payload["resume_frame"] = plan.StartFrame
					payload["missing_frames"] = frames.FormatList(plan.Missing)
					payload["already_complete"] = plan.Complete
				}
				return writeJSON(cmd, payload)
			}

			fmt.Fprintf(out, "Scene:         %s\n", absPath)
			fmt.Fprintf(out, "Frame Range:   %d-%d\n", result.StartFrame, result.EndFrame)
			fmt.Fprintf(out, "Output Dir:    %s\n", result.OutputDir)
			fmt.Fprintf(out, "Image Format:  %s\n", result.ImageFormat)
			switch {
			case plan == nil:
				fmt.Fprintln(out, "Resume Plan:   output directory does not exist yet; render starts from the first frame")
			case plan.Complete:
				fmt.Fprintln(out, "Resume Plan:   all frames already rendered")
			case len(plan.Missing) > 0:
				fmt.Fprintf(out, "Resume Plan:   resume at frame %d, fill gaps %s\n", plan.StartFrame, frames.FormatList(plan.Missing))
			case plan.StartFrame > result.StartFrame:
				fmt.Fprintf(out, "Resume Plan:   resume at frame %d\n", plan.StartFrame)
			default:
				fmt.Fprintln(out, "Resume Plan:   render the full range")
			}
			return nil
		},
	}
}
