// Package prefs persists the user's dashboard preferences: search history,
// focus mode and auto-refresh cadence.
package prefs

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/IDAN2468D/NovaNews/internal/schedule"
	"github.com/sirupsen/logrus"
)

const (
	KeyHistory     = "search_history"
	KeyFocus       = "focus_mode"
	KeyRefreshMode = "refresh_mode"

	DefaultHistorySize = 10
)

// KV is a string key/value backend.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Prefs is the persisted preference snapshot.
type Prefs struct {
	History []string
	Focus   bool
	Mode    schedule.Mode
}

// Store reads preferences once and writes each change through
// immediately. Write failures are logged and otherwise ignored.
type Store struct {
	kv  KV
	log logrus.FieldLogger
}

func NewStore(kv KV, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{kv: kv, log: log.WithField("component", "prefs")}
}

// Load reads all preferences. Missing or corrupt values fall back to an
// empty history, focus off and defaultMode.
func (s *Store) Load(ctx context.Context, defaultMode schedule.Mode) Prefs {
	p := Prefs{Mode: defaultMode}

	if raw, ok := s.get(ctx, KeyHistory); ok {
		var h []string
		if err := json.Unmarshal([]byte(raw), &h); err != nil {
			s.log.WithError(err).Warn("discarding corrupt search history")
		} else {
			p.History = h
		}
	}
	if raw, ok := s.get(ctx, KeyFocus); ok {
		p.Focus, _ = strconv.ParseBool(raw)
	}
	if raw, ok := s.get(ctx, KeyRefreshMode); ok {
		if m, err := schedule.ParseMode(raw); err == nil {
			p.Mode = m
		} else {
			s.log.WithError(err).Warn("ignoring stored refresh mode")
		}
	}
	return p
}

func (s *Store) SaveHistory(ctx context.Context, history []string) {
	if history == nil {
		history = []string{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		s.log.WithError(err).Error("encoding search history")
		return
	}
	s.set(ctx, KeyHistory, string(data))
}

func (s *Store) SaveFocus(ctx context.Context, on bool) {
	s.set(ctx, KeyFocus, strconv.FormatBool(on))
}

func (s *Store) SaveMode(ctx context.Context, m schedule.Mode) {
	s.set(ctx, KeyRefreshMode, string(m))
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("reading preference")
		return "", false
	}
	return v, ok
}

func (s *Store) set(ctx context.Context, key, value string) {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.log.WithError(err).WithField("key", key).Error("writing preference")
	}
}

// PushHistory returns history with topic moved to the front, without
// duplicates and at most max entries long. Blank topics are ignored.
func PushHistory(history []string, topic string, max int) []string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return history
	}
	if max <= 0 {
		max = DefaultHistorySize
	}
	out := make([]string, 0, max)
	out = append(out, topic)
	for _, h := range history {
		if len(out) == max {
			break
		}
		if h != topic {
			out = append(out, h)
		}
	}
	return out
}
