package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/topomap/pkg/feed"
	"github.com/dd0wney/topomap/pkg/logging"
)

type publishOptions struct {
	snapshot string
	address  string
	topic    string
	interval time.Duration
	count    int
	compress bool
}

func newPublishCmd(a *app) *cobra.Command {
	o := &publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Broadcast a snapshot to view subscribers over nng",
		Long: "publish listens on a PUB socket and re-sends the snapshot every interval,\n" +
			"re-reading the file each time so edits reach subscribers.",
		Example: `  topomap publish --snapshot topology.yaml --address tcp://127.0.0.1:40899
  topomap view --subscribe tcp://127.0.0.1:40899`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.address == "" {
				o.address = a.cfg.Feed.Address
			}
			if o.address == "" {
				return errors.New("an --address is required")
			}
			if !cmd.Flags().Changed("topic") && a.cfg.Feed.Topic != "" {
				o.topic = a.cfg.Feed.Topic
			}
			if !cmd.Flags().Changed("compress") {
				o.compress = a.cfg.Feed.Compress
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPublish(ctx, cmd, a, o)
		},
	}
	cmd.Flags().StringVarP(&o.snapshot, "snapshot", "s", "", "snapshot file (.json, .yaml); the demo topology when empty")
	cmd.Flags().StringVarP(&o.address, "address", "a", "", "listen address, e.g. tcp://127.0.0.1:40899")
	cmd.Flags().StringVar(&o.topic, "topic", "", "topic prefix prepended to each message")
	cmd.Flags().DurationVar(&o.interval, "interval", time.Second, "time between broadcasts")
	cmd.Flags().IntVar(&o.count, "count", 0, "number of broadcasts, 0 publishes until interrupted")
	cmd.Flags().BoolVar(&o.compress, "compress", false, "snappy-compress message bodies")
	return cmd
}

func runPublish(ctx context.Context, cmd *cobra.Command, a *app, o *publishOptions) error {
	if o.interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", o.interval)
	}
	p, err := feed.NewPublisher(o.address, o.topic, o.compress)
	if err != nil {
		return err
	}
	defer p.Close()
	printOK(cmd.OutOrStdout(), "publishing on %s", o.address)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for sent := 0; o.count == 0 || sent < o.count; sent++ {
		s, err := a.loadSnapshot(o.snapshot)
		if err != nil {
			// keep the socket up; the file may be mid-edit
			a.logger.Warn("snapshot not published", logging.Path(o.snapshot), logging.Error(err))
		} else if err := p.Publish(s); err != nil {
			return err
		} else {
			a.logger.Debug("snapshot published", logging.Revision(s.Revision), logging.Count(len(s.Nodes)))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
