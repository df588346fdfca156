package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/schedule"
	"github.com/IDAN2468D/NovaNews/internal/tui"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if flagMode != "" {
		m, err := schedule.ParseMode(flagMode)
		if err != nil {
			return fmt.Errorf("invalid --mode value: %w", err)
		}
		a.state.Mode = m
	}

	ctl, err := a.controller(ctx, true)
	if err != nil {
		return err
	}

	// Auto-prune before restoring so stale topics are not shown
	if _, err := a.db.Prune(a.cfg.RetentionDuration()); err != nil {
		a.log.WithError(err).Warn("pruning cache")
	}
	restored := ctl.Restore()

	refresher := schedule.NewRefresher(ctx, ctl.Scan(), ctl.Topic,
		func(ctx context.Context, topic string) {
			if err := ctl.RefreshTopic(ctx, topic); err != nil {
				a.log.WithError(err).WithField("topic", topic).Info("auto-refresh skipped")
			}
		},
		schedule.WithLogger(a.log),
		schedule.WithCycleTimeout(cliTimeout),
	)
	defer refresher.Stop()
	ctl.AttachRefresher(refresher)
	if flagMode != "" {
		ctl.SetRefreshMode(ctx, a.state.Mode)
	}

	streak, err := a.db.UpdateStreak()
	if err != nil {
		a.log.WithError(err).Warn("updating streak")
	}

	a.log.WithFields(map[string]any{
		"topic":    ctl.Topic(),
		"restored": restored,
		"mode":     a.state.Mode,
	}).Info("starting dashboard")

	return tui.Run(tui.RunOpts{
		Ctx:        ctx,
		Controller: ctl,
		ExportDir:  a.cfg.GetExportDir(),
		Streak:     streak,
		Version:    version,
		AutoFetch:  flagRefresh || restored == 0 || stale(a.db.LastRefresh(), a.state.Mode),
		Log:        a.log,
		Now:        time.Now,
	})
}

// stale reports whether the cached news is older than one refresh
// interval of m. With refresh off, cached news is never stale.
func stale(last time.Time, m schedule.Mode) bool {
	if m.Interval() == 0 {
		return false
	}
	return last.IsZero() || time.Since(last) > m.Interval()
}

func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
