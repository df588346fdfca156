package prefs

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/IDAN2468D/NovaNews/internal/cache"
	"github.com/IDAN2468D/NovaNews/internal/logging"
	"github.com/IDAN2468D/NovaNews/internal/schedule"
	"github.com/alicebob/miniredis/v2"
)

type mapKV map[string]string

func (m mapKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapKV) Set(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("disk gone")
}

func TestPushHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []string
		topic   string
		max     int
		want    []string
	}{
		{"first", nil, "sports", 10, []string{"sports"}},
		{"most recent first", []string{"a", "b"}, "c", 10, []string{"c", "a", "b"}},
		{"dedupe moves to front", []string{"a", "b", "c"}, "b", 10, []string{"b", "a", "c"}},
		{"trimmed", []string{"a"}, "  b  ", 10, []string{"b", "a"}},
		{"case sensitive", []string{"Tech"}, "tech", 10, []string{"tech", "Tech"}},
		{"bounded", []string{"a", "b", "c"}, "d", 3, []string{"d", "a", "b"}},
		{"blank ignored", []string{"a"}, "   ", 10, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PushHistory(tt.history, tt.topic, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PushHistory = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPushHistoryDefaultBound(t *testing.T) {
	var h []string
	for _, topic := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"} {
		h = PushHistory(h, topic, 0)
	}
	if len(h) != DefaultHistorySize {
		t.Fatalf("expected %d entries, got %d", DefaultHistorySize, len(h))
	}
	if h[0] != "12" || h[9] != "3" {
		t.Errorf("unexpected history %v", h)
	}
}

func TestLoadDefaults(t *testing.T) {
	s := NewStore(mapKV{}, logging.Discard())
	p := s.Load(context.Background(), schedule.Hourly)
	if len(p.History) != 0 || p.Focus || p.Mode != schedule.Hourly {
		t.Errorf("unexpected defaults %+v", p)
	}
}

func TestLoadCorruptValues(t *testing.T) {
	kv := mapKV{
		KeyHistory:     "not json",
		KeyFocus:       "maybe",
		KeyRefreshMode: "weekly",
	}
	p := NewStore(kv, logging.Discard()).Load(context.Background(), schedule.Off)
	if len(p.History) != 0 || p.Focus || p.Mode != schedule.Off {
		t.Errorf("expected corrupt values to fall back, got %+v", p)
	}
}

func TestStoreWritesThrough(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	s := NewStore(kv, logging.Discard())

	s.SaveHistory(ctx, []string{"כלכלה", "sports"})
	s.SaveFocus(ctx, true)
	s.SaveMode(ctx, schedule.Fast)

	if kv[KeyHistory] != `["כלכלה","sports"]` {
		t.Errorf("history stored as %q", kv[KeyHistory])
	}
	if kv[KeyFocus] != "true" || kv[KeyRefreshMode] != "fast" {
		t.Errorf("unexpected stored values %v", kv)
	}

	p := s.Load(ctx, schedule.Off)
	want := Prefs{History: []string{"כלכלה", "sports"}, Focus: true, Mode: schedule.Fast}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("Load = %+v, want %+v", p, want)
	}

	s.SaveHistory(ctx, nil)
	if kv[KeyHistory] != "[]" {
		t.Errorf("cleared history stored as %q", kv[KeyHistory])
	}
}

func TestStoreErrorsAreNotFatal(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingKV{}, logging.Discard())
	s.SaveFocus(ctx, true)
	p := s.Load(ctx, schedule.Daily)
	if p.Mode != schedule.Daily {
		t.Errorf("expected default mode on read failure, got %s", p.Mode)
	}
}

func TestMetaKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := cache.Open(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	defer db.Close()

	s := NewStore(NewMetaKV(db), logging.Discard())
	s.SaveHistory(ctx, []string{"tech"})
	s.SaveMode(ctx, schedule.Daily)

	p := s.Load(ctx, schedule.Off)
	if !reflect.DeepEqual(p.History, []string{"tech"}) || p.Mode != schedule.Daily {
		t.Errorf("unexpected prefs %+v", p)
	}
}

func TestRedisKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	kv, err := NewRedisKV(ctx, "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("NewRedisKV: %v", err)
	}
	defer kv.Close()

	if _, ok, err := kv.Get(ctx, KeyFocus); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	s := NewStore(kv, logging.Discard())
	s.SaveFocus(ctx, true)
	s.SaveHistory(ctx, []string{"a", "b"})

	if got, _ := mr.Get(redisPrefix + KeyFocus); got != "true" {
		t.Errorf("redis value = %q", got)
	}

	p := s.Load(ctx, schedule.Off)
	if !p.Focus || !reflect.DeepEqual(p.History, []string{"a", "b"}) {
		t.Errorf("unexpected prefs %+v", p)
	}
}

func TestNewRedisKVUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisKV(context.Background(), "redis://"+addr); err == nil {
		t.Error("expected error for unreachable redis")
	}
}
