package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/IDAN2468D/NovaNews/internal/ai"
	"github.com/IDAN2468D/NovaNews/internal/cache"
	"github.com/IDAN2468D/NovaNews/internal/config"
	"github.com/IDAN2468D/NovaNews/internal/dashboard"
	"github.com/IDAN2468D/NovaNews/internal/feed"
	"github.com/IDAN2468D/NovaNews/internal/logging"
	"github.com/IDAN2468D/NovaNews/internal/prefs"
	"github.com/IDAN2468D/NovaNews/internal/speech"
	"github.com/sirupsen/logrus"
)

// app bundles the pieces every command opens: config, log file, cache
// and preference store.
type app struct {
	cfg     *config.Config
	db      *cache.Cache
	log     *logrus.Logger
	prefs   *prefs.Store
	state   prefs.Prefs
	closers []io.Closer
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a := &app{cfg: cfg, log: logrus.StandardLogger()}

	logCloser, err := logging.Setup(logging.Options{Path: config.LogPath(), Level: cfg.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	a.closers = append(a.closers, logCloser)

	db, err := cache.Open(config.CachePath())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db)

	a.prefs = prefs.NewStore(a.openKV(ctx), a.log)
	a.state = a.prefs.Load(ctx, cfg.InitialRefreshMode())
	return a, nil
}

// openKV selects the preference backend. An unreachable redis falls back
// to the sqlite meta table.
func (a *app) openKV(ctx context.Context) prefs.KV {
	if a.cfg.Prefs.Backend == "redis" {
		kv, err := prefs.NewRedisKV(ctx, a.cfg.Prefs.RedisURL)
		if err == nil {
			a.closers = append(a.closers, kv)
			return kv
		}
		a.log.WithError(err).Warn("redis preferences unavailable, using local cache")
	}
	return prefs.NewMetaKV(a.db)
}

// provider returns the configured AI provider. Without an API key it
// falls back to plain RSS headlines.
func (a *app) provider(ctx context.Context) (ai.Provider, error) {
	p, err := ai.New(ctx, a.cfg)
	if errors.Is(err, ai.ErrNotConfigured) {
		a.log.Warn("no AI key configured, showing RSS headlines")
		return ai.NewHeadlines(feed.NewRSSFetcher(), a.cfg.EnabledSources()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating AI provider: %w", err)
	}
	return p, nil
}

// speaker returns nil when speech is disabled or cannot start.
func (a *app) speaker(ctx context.Context) speech.Speaker {
	s, err := speech.New(ctx, a.cfg)
	if err != nil {
		a.log.WithError(err).Info("speech disabled")
		return nil
	}
	return s
}

// topic resolves the --topic flag, the last search and the configured
// default, in that order.
func (a *app) topic() string {
	if flagTopic != "" {
		return flagTopic
	}
	if len(a.state.History) > 0 {
		return a.state.History[0]
	}
	return a.cfg.DefaultTopic
}

func (a *app) controller(ctx context.Context, withSpeech bool) (*dashboard.Controller, error) {
	p, err := a.provider(ctx)
	if err != nil {
		return nil, err
	}
	opts := dashboard.Options{
		Provider:    p,
		Voice:       a.cfg.Speech.Voice,
		Store:       a.db,
		Prefs:       a.prefs,
		Initial:     a.state,
		Topic:       a.topic(),
		HistorySize: a.cfg.GetHistorySize(),
		Log:         a.log,
	}
	if withSpeech {
		opts.Speaker = a.speaker(ctx)
	}
	return dashboard.New(opts), nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}
