package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Alwanly/hospital-polling/internal/config"
	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/poll"
	"github.com/Alwanly/hospital-polling/pkg/pubsub"
)

var errAllStopped = errors.New("all polling sessions stopped")

type watchFlags struct {
	hospitalID  string
	feeds       []string
	file        string
	redis       bool
	onlyChanges bool
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	var f watchFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll hospital feeds and print every update",
		Long: `Start one polling session per feed and print each update as a JSON line.

Feeds come from --hospital with --feeds, or from a YAML file given by --file.
With --redis, change hints published by the server trigger an immediate
poll of the matching hospital's sessions.

The command runs until interrupted or until every session has given up.

Example:
  hospital-poller watch --hospital h-1 --feeds resources,changes
  hospital-poller watch --file feeds.yaml --redis`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, g, f)
		},
	}

	cmd.Flags().StringVar(&f.hospitalID, "hospital", "", "hospital id")
	cmd.Flags().StringSliceVar(&f.feeds, "feeds", []string{config.FeedChanges}, "feeds to poll: resources, bookings, dashboard, changes")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "YAML feeds file")
	cmd.Flags().BoolVar(&f.redis, "redis", false, "subscribe to change hints on redis (REDIS_HOST)")
	cmd.Flags().BoolVar(&f.onlyChanges, "only-changes", true, "print only updates reporting changes")
	cmd.MarkFlagsMutuallyExclusive("hospital", "file")
	return cmd
}

// resolveFeeds builds the feed list from flags or the feeds file.
func resolveFeeds(f watchFlags) ([]config.Feed, error) {
	if f.file != "" {
		file, err := config.LoadFeeds(f.file)
		if err != nil {
			return nil, err
		}
		return file.Feeds, nil
	}

	if f.hospitalID == "" {
		return nil, errors.New("either --hospital or --file is required")
	}

	var feeds []config.Feed
	for _, kind := range f.feeds {
		kind = strings.TrimSpace(kind)
		switch kind {
		case config.FeedResources, config.FeedBookings, config.FeedDashboard, config.FeedChanges:
		default:
			return nil, fmt.Errorf("unknown feed %q", kind)
		}
		feeds = append(feeds, config.Feed{
			ID:         f.hospitalID + "-" + kind,
			Kind:       kind,
			HospitalID: f.hospitalID,
		})
	}
	return feeds, nil
}

// printer writes updates as JSON lines.
type printer struct {
	mu          sync.Mutex
	out         io.Writer
	onlyChanges bool
}

type updateLine struct {
	Session string          `json:"session"`
	At      string          `json:"at"`
	Data    json.RawMessage `json:"data"`
}

func (p *printer) OnUpdate(data json.RawMessage, sessionID string) {
	if p.onlyChanges && !reportsChanges(data) {
		return
	}
	line, err := json.Marshal(updateLine{
		Session: sessionID,
		At:      time.Now().UTC().Format(time.RFC3339),
		Data:    data,
	})
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, string(line))
}

// reportsChanges treats a missing hasChanges field as a change.
func reportsChanges(data json.RawMessage) bool {
	var probe struct {
		HasChanges *bool `json:"hasChanges"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.HasChanges == nil {
		return true
	}
	return *probe.HasChanges
}

// startFeed starts the session for one feed.
func startFeed(client *poll.Client, feed config.Feed, opts poll.Options) (*poll.Session, error) {
	if feed.IntervalMs > 0 {
		opts.Interval = time.Duration(feed.IntervalMs) * time.Millisecond
	}
	opts.Params = feed.Params

	if feed.Endpoint != "" {
		return client.StartPolling(feed.ID, feed.Endpoint, opts)
	}

	switch feed.Kind {
	case config.FeedResources:
		return client.PollResources(feed.ID, feed.HospitalID, opts)
	case config.FeedBookings:
		return client.PollBookings(feed.ID, feed.HospitalID, opts)
	case config.FeedDashboard:
		return client.PollDashboard(feed.ID, feed.HospitalID, opts)
	case config.FeedChanges:
		return client.PollChanges(feed.ID, feed.HospitalID, opts)
	}
	return nil, fmt.Errorf("feed %q: unknown kind %q", feed.ID, feed.Kind)
}

func runWatch(cmd *cobra.Command, g *globalFlags, f watchFlags) error {
	log, err := logger.NewLoggerFromEnv("hospital-poller")
	if err != nil {
		return err
	}
	defer log.Sync()

	feeds, err := resolveFeeds(f)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	client, err := newClient(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var hints pubsub.Subscriber
	if f.redis {
		if cfg.Redis == nil {
			return errors.New("--redis requires REDIS_HOST")
		}
		ps, err := pubsub.NewRedisPubSub(pubsub.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			return err
		}
		defer ps.Close()
		hints = ps
	}

	return watch(ctx, client, feeds, hints, &printer{out: cmd.OutOrStdout(), onlyChanges: f.onlyChanges}, log)
}

// watch runs the feeds until ctx is done or every session has stopped.
func watch(ctx context.Context, client *poll.Client, feeds []config.Feed, hints pubsub.Subscriber, updater poll.Updater, log *logger.CanonicalLogger) error {
	opts := poll.Options{
		Updater: updater,
		ErrorHandler: poll.ErrorFunc(func(err error, sessionID string, retryCount int) {
			if retryCount > client.Config().MaxRetries {
				log.WithError(err).Error("feed stopped after repeated failures",
					logger.String(logger.FieldSessionID, sessionID))
			}
		}),
	}

	byHospital := make(map[string][]*poll.Session)
	sessions := make([]*poll.Session, 0, len(feeds))
	for _, feed := range feeds {
		s, err := startFeed(client, feed, opts)
		if err != nil {
			return err
		}
		sessions = append(sessions, s)
		if feed.HospitalID != "" {
			byHospital[feed.HospitalID] = append(byHospital[feed.HospitalID], s)
		}
		log.Info("watching feed",
			logger.String(logger.FieldSessionID, feed.ID),
			logger.String(logger.FieldHospitalID, feed.HospitalID),
		)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	grp, gCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		for _, s := range sessions {
			select {
			case <-s.Done():
			case <-gCtx.Done():
				return nil
			}
		}
		return errAllStopped
	})

	if hints != nil {
		msgs, err := hints.Subscribe(gCtx, pubsub.ChangesChannel)
		if err != nil {
			return fmt.Errorf("failed to subscribe to change hints: %w", err)
		}
		grp.Go(func() error {
			forwardHints(gCtx, msgs, byHospital, log)
			return nil
		})
	}

	grp.Go(func() error {
		<-gCtx.Done()
		client.StopAllPolling()
		return nil
	})

	err := grp.Wait()
	if errors.Is(err, errAllStopped) {
		return err
	}
	log.Info("watch stopped")
	return nil
}
