package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/tetherbooth/pkg/booth"
	"github.com/bft-labs/tetherbooth/pkg/capture"
	"github.com/bft-labs/tetherbooth/pkg/filter"
	"github.com/bft-labs/tetherbooth/pkg/layout"
)

// progress prints booth events for an operator at the terminal.
type progress struct {
	booth.BaseEventHandler
	out *os.File
}

func (p progress) OnPhotoAccepted(e booth.PhotoAcceptedEvent) {
	fmt.Fprintf(p.out, "photo %s (%d to go)\n", e.Photo.SessionPath, e.Remaining)
}

func (p progress) OnComposed(e booth.ComposedEvent) {
	fmt.Fprintf(p.out, "print %s\n", e.Print.Path)
	for _, h := range e.Print.Halves {
		fmt.Fprintf(p.out, "strip %s\n", h)
	}
}

func (a *app) selection(photos []string) booth.Selection {
	return booth.Selection{
		Photos:    photos,
		LayoutKey: a.cfg.LayoutKey,
		FramePath: a.cfg.FramePath,
		Mirror:    a.cfg.Mirror,
		Filter:    a.cfg.Filter,
	}
}

func (a *app) shootCmd() *cobra.Command {
	var (
		target  int
		noPrint bool
	)
	cmd := &cobra.Command{
		Use:   "shoot",
		Short: "Run one capture session and compose the print",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			shutdown := a.serveMetrics()
			defer shutdown()

			return a.withBooth(ctx, func(ctx context.Context, b *booth.Booth) error {
				report, err := b.RunSession(ctx, target)
				if err != nil {
					return err
				}
				s := report.Session
				fmt.Fprintf(cmd.OutOrStdout(), "session %s: %s, %d/%d photos\n", s.ID, s.State, len(s.Photos), s.Target)
				if noPrint || len(s.Photos) == 0 {
					return nil
				}
				_, err = b.Finalize(ctx, a.selection(nil))
				return err
			}, booth.WithEventHandler(progress{out: os.Stdout}))
		},
	}
	cmd.Flags().IntVar(&target, "count", 0, "photos to take (default: --target)")
	cmd.Flags().BoolVar(&noPrint, "no-print", false, "collect photos without composing a print")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print photos as they finish writing to the watch directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			w := capture.New(a.cfg.WatchDir,
				capture.WithPollInterval(a.cfg.PollInterval),
				capture.WithSettleDelay(a.cfg.SettleDelay),
				capture.WithExtensions(a.cfg.Extensions...),
				capture.WithLogger(a.logger),
			)
			base, err := w.Snapshot()
			if err != nil {
				return err
			}
			if count <= 0 {
				count = a.cfg.Target
			}

			res, err := w.WatchEach(ctx, base, count, a.cfg.Deadline, func(f capture.File) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\n", f.Path, f.Size)
				return nil
			})
			if err != nil {
				return err
			}
			switch {
			case res.TimedOut:
				fmt.Fprintf(cmd.ErrOrStderr(), "timed out after %d of %d photos\n", len(res.Files), count)
			case res.Canceled:
				fmt.Fprintf(cmd.ErrOrStderr(), "canceled after %d photos\n", len(res.Files))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "photos to wait for (default: --target)")
	return cmd
}

func (a *app) composeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compose [photo...]",
		Short: "Compose a print from photos, or from the latest session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return a.withBooth(ctx, func(ctx context.Context, b *booth.Booth) error {
				p, err := b.Finalize(ctx, a.selection(args))
				if err != nil {
					return err
				}
				if p.Composite.Fallback {
					fmt.Fprintf(cmd.ErrOrStderr(), "unknown layout %q, used %s\n", a.cfg.LayoutKey, p.Composite.LayoutKey)
				}
				if n := len(p.Composite.Placeholders); n > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d slot(s) filled with placeholder\n", n)
				}
				return nil
			}, booth.WithEventHandler(progress{out: os.Stdout}))
		},
	}
}

func (a *app) filterCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "filter <image> <name>",
		Short: "Apply a filter to an image",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			e := filter.New(filter.WithQuality(a.cfg.Quality), filter.WithLogger(a.logger))
			if list {
				for _, n := range e.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}
			if !e.Known(args[1]) {
				return fmt.Errorf("unknown filter %q (available: %s)", args[1], strings.Join(e.Names(), ", "))
			}
			out, err := e.Apply(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list available filters")
	return cmd
}

func (a *app) layoutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "Inspect slot layouts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List layouts with their slot count and canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := layout.LoadFile(a.cfg.LayoutsFile)
			if err != nil {
				return err
			}
			for _, key := range reg.Keys() {
				w, h := layout.CanvasSize(key)
				mark := ""
				if key == reg.DefaultKey() {
					mark = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d slots  %dx%d%s\n", key, reg.SlotCount(key), w, h, mark)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check a layout table (default: --layouts or the built-in one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.LayoutsFile
			if len(args) == 1 {
				path = args[0]
			}
			t := layout.BuiltinTable()
			if path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if t, err = layout.ParseTable(data); err != nil {
					return err
				}
			}
			if err := layout.Validate(t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d layouts\n", len(t.Layouts))
			return nil
		},
	})
	return cmd
}

func (a *app) triggerCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Fire the remote shutter once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.cfg.Trigger = true
			b, err := a.newBooth()
			if err != nil {
				return err
			}
			t := b.Trigger()
			if check {
				title, ok := t.Check(cmd.Context())
				if !ok {
					return fmt.Errorf("no remote live view window among %s", strings.Join(t.Titles(), ", "))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "found %q\n", title)
				return nil
			}
			out := t.Fire(cmd.Context())
			if out.Err != nil {
				return out.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fired via %q after %d attempt(s)\n", out.Window, out.Attempts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "only activate the window, do not send the capture key")
	return cmd
}

func (a *app) cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Prune the mirror cache once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.newBooth()
			if err != nil {
				return err
			}
			stats, err := b.CleanupMirror(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d file(s), freed %d bytes, %d bytes remain\n",
				stats.Removed, stats.BytesFreed, stats.Remaining)
			return nil
		},
	}
}
