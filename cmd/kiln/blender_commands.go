package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kiln/internal/config"
	"kiln/internal/deps"
)

func newBlenderCommand(ctx *commandContext) *cobra.Command {
	blenderCmd := &cobra.Command{
		Use:   "blender",
		Short: "Manage the Blender executable used for rendering",
	}

	blenderCmd.AddCommand(newBlenderShowCommand(ctx))
	blenderCmd.AddCommand(newBlenderSetPathCommand(ctx))

	return blenderCmd
}

func newBlenderShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the configured Blender path and its readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings, err := config.LoadBlender(cfg.Paths.BlenderConfig)
			if err != nil {
				return err
			}

			status := deps.CheckBlender(settings.BlenderPath)
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"settings_file": cfg.Paths.BlenderConfig,
					"blender_path":  settings.BlenderPath,
					"resolved_path": status.Command,
					"ready":         status.Available,
					"detail":        status.Detail,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings file: %s\n", cfg.Paths.BlenderConfig)
			if settings.BlenderPath == "" {
				fmt.Fprintln(out, "Blender path:  (not set)")
			} else {
				fmt.Fprintf(out, "Blender path:  %s\n", settings.BlenderPath)
			}
			fmt.Fprintf(out, "Ready:         %s\n", yesNo(status.Available))
			if detail := strings.TrimSpace(status.Detail); detail != "" {
				fmt.Fprintf(out, "Detail:        %s\n", detail)
			}
			if !status.Available {
				fmt.Fprintln(out, "Set the executable with `kiln blender set-path <path>`")
			}
			return nil
		},
	}
}

func newBlenderSetPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "set-path <path>",
		Aliases: []string{"set"},
		Short:   "Set the Blender executable path",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			target := strings.TrimSpace(args[0])
			// Bare command names stay as-is so PATH lookup still applies;
			// anything that looks like a filesystem path gets expanded.
			if strings.ContainsAny(target, "/~") {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve blender path: %w", err)
				}
				target = expanded
			}

			status := deps.CheckBlender(target)
			if !status.Available {
				return fmt.Errorf("blender path rejected: %s", status.Detail)
			}

			// Store the resolved absolute path: the daemon validates the
			// saved value with a plain stat, so a bare PATH name would
			// break probing.
			resolved := status.Command
			if strings.TrimSpace(resolved) == "" {
				resolved = target
			}
			if err := config.SaveBlender(cfg.Paths.BlenderConfig, config.BlenderSettings{BlenderPath: resolved}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Blender path set to %s\n", resolved)
			fmt.Fprintln(out, "The daemon picks up the new path on the next job; no restart needed")
			return nil
		},
	}
}
