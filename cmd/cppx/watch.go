package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cppx/internal/app"
	"cppx/internal/watch"
)

func newWatchCmd(newSvc func() (*app.Service, error)) *cobra.Command {
	var dir string
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep source files in config.toml in step with a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if interval > 0 {
				svc.WatchInterval = interval
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runWatch(ctx, svc, dir)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", app.DefaultWatchDir, "directory to watch, relative to the project")
	cmd.Flags().DurationVar(&interval, "interval", 0, "polling interval (default 1s)")
	return cmd
}

// runWatch runs the watcher in its own goroutine until ctx is cancelled
// or the watcher fails.
func runWatch(ctx context.Context, svc *app.Service, dir string) error {
	w, err := svc.Watcher(dir, printChange)
	if err != nil {
		return err
	}
	fmt.Printf("watching %s (Ctrl+C to stop)\n", w.Dir())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		svc.Log.Debug("watch stopping", "state", w.State())
		return nil
	})
	return g.Wait()
}

func printChange(c app.WatchChange) {
	switch {
	case c.Applied && c.Event.Op == watch.Created:
		fmt.Printf("added %s\n", c.Entry)
	case c.Applied:
		fmt.Printf("removed %s\n", c.Entry)
	case c.Reason != "":
		fmt.Printf("skipped %s (%s)\n", c.Entry, c.Reason)
	}
}
