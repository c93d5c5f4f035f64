package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

var errNoProfileDirs = errors.New("no profile directories to watch")

type profileRow struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Version int    `json:"version"`
	Source  string `json:"source,omitempty"`
}

func NewProfilesCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect and watch interaction profiles",
	}
	cmd.AddCommand(newProfilesListCommand(root))
	cmd.AddCommand(newProfilesWatchCommand(root))
	return cmd
}

func newProfilesListCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir...]",
		Short: "List the profiles found in the configured and given directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := root.loadLibrary(args...)
			if err != nil {
				return err
			}
			return listProfiles(cmd.OutOrStdout(), root.Output, lib)
		},
	}
}

func listProfiles(out io.Writer, format string, lib *profile.Library) error {
	rows := make([]profileRow, 0)
	for _, name := range lib.Names() {
		p, err := lib.Get(name)
		if err != nil {
			return err
		}
		rows = append(rows, profileRow{Name: p.Name, Kind: string(p.Kind), Version: p.Version, Source: lib.Source(name)})
	}
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tVERSION\tSOURCE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Name, r.Kind, r.Version, r.Source)
	}
	return tw.Flush()
}

func newProfilesWatchCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Reload profiles as their files change and report each reload",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchProfiles(ctx, root, args, cmd.OutOrStdout())
		},
	}
}

func watchProfiles(ctx context.Context, root *RootOptions, extra []string, out io.Writer) error {
	lib, err := root.loadLibrary(extra...)
	if err != nil {
		return err
	}
	dirs := root.profileDirs(extra)
	if len(dirs) == 0 {
		return errNoProfileDirs
	}
	reloaded := make(chan *profile.Profile, 16)
	if err := lib.Watch(ctx, root.log, func(p *profile.Profile) {
		select {
		case reloaded <- p:
		case <-ctx.Done():
		}
	}, dirs...); err != nil {
		return err
	}
	root.log.Info("watching profiles", "dirs", dirs, "loaded", len(lib.Names()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case p := <-reloaded:
			fmt.Fprintf(out, "reloaded %s (%s v%d)\n", p.Name, p.Kind, p.Version)
		}
	}
}
