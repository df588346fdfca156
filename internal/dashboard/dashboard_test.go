package dashboard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/ai"
	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/logging"
	"github.com/IDAN2468D/NovaNews/internal/news"
	"github.com/IDAN2468D/NovaNews/internal/normalize"
	"github.com/IDAN2468D/NovaNews/internal/prefs"
	"github.com/IDAN2468D/NovaNews/internal/schedule"
	"github.com/IDAN2468D/NovaNews/internal/speech"
)

type fakeProvider struct {
	resp  ai.Response
	err   error
	block chan struct{}

	mu     sync.Mutex
	topics []string
	images int
}

func (f *fakeProvider) answer(ctx context.Context, topic string) (ai.Response, error) {
	f.mu.Lock()
	f.topics = append(f.topics, topic)
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ai.Response{}, ctx.Err()
		}
	}
	return f.resp, f.err
}

func (f *fakeProvider) Search(ctx context.Context, topic string) (ai.Response, error) {
	return f.answer(ctx, topic)
}

func (f *fakeProvider) Research(ctx context.Context, topic string) (ai.Response, error) {
	return f.answer(ctx, "deep:"+topic)
}

func (f *fakeProvider) AnalyzeImage(ctx context.Context, data []byte, mime string) (ai.Response, error) {
	f.mu.Lock()
	f.images++
	f.mu.Unlock()
	return f.resp, f.err
}

type fakeStore struct {
	saved       map[string][]news.Article
	lastRefresh time.Time
	err         error
}

func (s *fakeStore) SaveTopic(topic string, articles []news.Article, _ time.Time) error {
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = map[string][]news.Article{}
	}
	s.saved[topic] = articles
	return nil
}

func (s *fakeStore) TopicArticles(topic string) ([]news.Article, error) {
	return s.saved[topic], s.err
}

func (s *fakeStore) SetLastRefresh(t time.Time) error {
	s.lastRefresh = t
	return s.err
}

type fakePrefs struct {
	history []string
	focus   *bool
	mode    schedule.Mode
	writes  int
}

func (p *fakePrefs) SaveHistory(_ context.Context, h []string) { p.history = h; p.writes++ }
func (p *fakePrefs) SaveFocus(_ context.Context, on bool)     { p.focus = &on; p.writes++ }
func (p *fakePrefs) SaveMode(_ context.Context, m schedule.Mode) {
	p.mode = m
	p.writes++
}

type fakeRefresher struct {
	modes []schedule.Mode
}

func (r *fakeRefresher) SetMode(m schedule.Mode) { r.modes = append(r.modes, m) }
func (r *fakeRefresher) Remaining() int          { return 42 }

var fixedNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newTestController(p ai.Provider, opts Options) *Controller {
	opts.Provider = p
	opts.Log = logging.Discard()
	opts.Now = func() time.Time { return fixedNow }
	return New(opts)
}

const twoArticles = `[{"title": "A", "summary": "a", "category": "Sports"}, {"title": "B", "summary": "b", "category": "Politics"}]`

func TestSearchPopulatesArticles(t *testing.T) {
	p := &fakeProvider{resp: ai.Response{Text: twoArticles, Links: []string{"https://x.example/1"}}}
	store := &fakeStore{}
	pw := &fakePrefs{}
	c := newTestController(p, Options{Store: store, Prefs: pw})

	if err := c.Search(context.Background(), "  sports  "); err != nil {
		t.Fatalf("Search: %v", err)
	}

	snap := c.Snapshot()
	if snap.Topic != "sports" {
		t.Errorf("topic = %q", snap.Topic)
	}
	if len(snap.Articles) != 2 || snap.Articles[0].SourceURL != "https://x.example/1" || snap.Articles[1].SourceURL != "" {
		t.Errorf("unexpected articles %+v", snap.Articles)
	}
	if snap.Banner != "" {
		t.Errorf("unexpected banner %q", snap.Banner)
	}
	if snap.Scan.InFlight || !snap.Scan.LastSuccess.Equal(fixedNow) || snap.Scan.Status != StatusDone {
		t.Errorf("unexpected scan state %+v", snap.Scan)
	}
	if !reflect.DeepEqual(pw.history, []string{"sports"}) {
		t.Errorf("history not persisted: %v", pw.history)
	}
	if len(store.saved["sports"]) != 2 || !store.lastRefresh.Equal(fixedNow) {
		t.Errorf("articles not cached: %+v", store)
	}
}

func TestSearchEmptyTopic(t *testing.T) {
	p := &fakeProvider{}
	c := newTestController(p, Options{})
	if err := c.Search(context.Background(), "   "); !errors.Is(err, ErrEmptyTopic) {
		t.Errorf("expected ErrEmptyTopic, got %v", err)
	}
	if len(p.topics) != 0 {
		t.Error("provider should not be called")
	}
}

func TestFetchErrorShowsErrorPlaceholder(t *testing.T) {
	p := &fakeProvider{err: errors.New("quota exceeded")}
	store := &fakeStore{}
	c := newTestController(p, Options{Store: store})

	err := c.Search(context.Background(), "tech")
	if err == nil {
		t.Fatal("expected error")
	}

	snap := c.Snapshot()
	if len(snap.Articles) != 1 || snap.Articles[0] != normalize.ErrorPlaceholder() {
		t.Errorf("expected error placeholder, got %+v", snap.Articles)
	}
	if snap.Banner == "" {
		t.Error("expected banner")
	}
	if snap.Scan.InFlight {
		t.Error("scan should be reset after failure")
	}
	if !snap.Scan.LastSuccess.IsZero() {
		t.Error("last success must not move on failure")
	}
	if len(store.saved) != 0 {
		t.Error("failed cycle must not be cached")
	}
}

func TestUnparseableShowsPlaceholder(t *testing.T) {
	p := &fakeProvider{resp: ai.Response{Text: "Sorry, I cannot help with that."}}
	store := &fakeStore{}
	c := newTestController(p, Options{Store: store})

	if err := c.Search(context.Background(), "tech"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.Articles) != 1 || snap.Articles[0] != normalize.Placeholder() {
		t.Errorf("expected placeholder, got %+v", snap.Articles)
	}
	if snap.Banner != bannerUnparseable {
		t.Errorf("banner = %q", snap.Banner)
	}
	if len(store.saved) != 0 {
		t.Error("placeholder must not be cached")
	}
}

func TestEmptyResultClearsArticles(t *testing.T) {
	p := &fakeProvider{resp: ai.Response{Text: twoArticles}}
	c := newTestController(p, Options{})
	c.Search(context.Background(), "tech")

	p.resp = ai.Response{Text: "[]"}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.Articles) != 0 || snap.Banner != bannerEmpty {
		t.Errorf("expected empty list and banner, got %+v %q", snap.Articles, snap.Banner)
	}
}

func TestBusyDropsManualAction(t *testing.T) {
	p := &fakeProvider{resp: ai.Response{Text: twoArticles}, block: make(chan struct{})}
	pw := &fakePrefs{}
	c := newTestController(p, Options{Prefs: pw})

	done := make(chan error, 1)
	go func() { done <- c.Search(context.Background(), "first") }()

	deadline := time.Now().Add(time.Second)
	for !c.Scan().InFlight() {
		if time.Now().After(deadline) {
			t.Fatal("cycle never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.Search(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if err := c.Refresh(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy for refresh, got %v", err)
	}
	if err := c.Analyze(context.Background(), []byte("x"), "image/png"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy for analyze, got %v", err)
	}

	close(p.block)
	if err := <-done; err != nil {
		t.Fatalf("first search: %v", err)
	}
	if !reflect.DeepEqual(c.History(), []string{"first"}) {
		t.Errorf("dropped search must not touch history: %v", c.History())
	}
	if c.Topic() != "first" {
		t.Errorf("dropped search must not change topic: %q", c.Topic())
	}
}

func TestResearchCyclesLinks(t *testing.T) {
	text := `[{"title": "1"}, {"title": "2"}, {"title": "3"}]`
	p := &fakeProvider{resp: ai.Response{Text: text, Links: []string{"https://a.example", "https://b.example"}}}
	c := newTestController(p, Options{Topic: "economy"})

	if err := c.Research(context.Background(), ""); err != nil {
		t.Fatalf("Research: %v", err)
	}
	if p.topics[0] != "deep:economy" {
		t.Errorf("expected research on current topic, got %v", p.topics)
	}
	snap := c.Snapshot()
	if snap.Kind != KindResearch {
		t.Errorf("kind = %v", snap.Kind)
	}
	want := []string{"https://a.example", "https://b.example", "https://a.example"}
	for i, a := range snap.Articles {
		if a.SourceURL != want[i] {
			t.Errorf("article %d link = %q, want %q", i, a.SourceURL, want[i])
		}
	}
	if len(c.History()) != 0 {
		t.Error("research should not record history")
	}
}

func TestAnalyzeProducesOneRecord(t *testing.T) {
	p := &fakeProvider{resp: ai.Response{Text: `{"title": "Flood", "summary": "Rain"} {"title": "Extra"}`}}
	store := &fakeStore{}
	c := newTestController(p, Options{Topic: "weather", Store: store})

	if err := c.Analyze(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.Articles) != 1 || snap.Articles[0].SourceName != news.ImageSourceName || snap.Articles[0].Title != "Flood" {
		t.Errorf("unexpected articles %+v", snap.Articles)
	}
	if snap.Topic != "weather" {
		t.Errorf("image analysis should keep topic, got %q", snap.Topic)
	}
	if len(store.saved) != 0 {
		t.Error("image results are not cached per topic")
	}
}

func TestHistoryBoundedAndDeduplicated(t *testing.T) {
	p := &fakeProvider{resp: ai.Response{Text: "[]"}}
	c := newTestController(p, Options{HistorySize: 3, Initial: prefs.Prefs{History: []string{"a", "b"}}})
	ctx := context.Background()

	c.Search(ctx, "c")
	c.Search(ctx, "a")
	c.Search(ctx, "d")

	want := []string{"d", "a", "c"}
	if got := c.History(); !reflect.DeepEqual(got, want) {
		t.Errorf("History = %v, want %v", got, want)
	}

	pw := &fakePrefs{}
	c.prefs = pw
	c.ClearHistory(ctx)
	if len(c.History()) != 0 || pw.history != nil || pw.writes != 1 {
		t.Errorf("history not cleared: %v %v", c.History(), pw.history)
	}
}

func TestCategoryFilter(t *testing.T) {
	p := &fakeProvider{resp: ai.Response{Text: twoArticles}}
	c := newTestController(p, Options{})
	c.Search(context.Background(), "x")

	c.SetCategory(classify.Sports)
	if v := c.Visible(); len(v) != 1 || v[0].Title != "A" {
		t.Errorf("Visible = %+v", v)
	}
	if got := c.Snapshot(); got.Category != classify.Sports || len(got.Articles) != 1 {
		t.Errorf("snapshot not filtered: %+v", got)
	}
	if len(c.Articles()) != 2 {
		t.Error("Articles should ignore the filter")
	}
	c.SetCategory("")
	if len(c.Visible()) != 2 {
		t.Error("empty category should show all")
	}
}

func TestRefreshModeAndFocusPersist(t *testing.T) {
	pw := &fakePrefs{}
	r := &fakeRefresher{}
	c := newTestController(&fakeProvider{}, Options{Prefs: pw, Initial: prefs.Prefs{Mode: schedule.Hourly}})
	ctx := context.Background()

	c.AttachRefresher(r)
	if !reflect.DeepEqual(r.modes, []schedule.Mode{schedule.Hourly}) {
		t.Errorf("attach should arm with the loaded mode, got %v", r.modes)
	}

	if next := c.CycleRefreshMode(ctx); next != schedule.Daily {
		t.Errorf("CycleRefreshMode = %s", next)
	}
	if pw.mode != schedule.Daily || r.modes[len(r.modes)-1] != schedule.Daily {
		t.Errorf("mode not applied: prefs=%s refresher=%v", pw.mode, r.modes)
	}
	if c.Remaining() != 42 {
		t.Errorf("Remaining = %d", c.Remaining())
	}

	if on := c.ToggleFocus(ctx); !on || pw.focus == nil || !*pw.focus {
		t.Errorf("focus not persisted")
	}
	if on := c.ToggleFocus(ctx); on || *pw.focus {
		t.Errorf("focus should toggle back off")
	}
}

func TestRestoreFromStore(t *testing.T) {
	store := &fakeStore{saved: map[string][]news.Article{"tech": {{Title: "cached"}}}}
	c := newTestController(&fakeProvider{}, Options{Topic: "tech", Store: store})

	if n := c.Restore(); n != 1 {
		t.Errorf("Restore = %d", n)
	}
	if a := c.Articles(); len(a) != 1 || a[0].Title != "cached" {
		t.Errorf("unexpected articles %+v", a)
	}
	if c.Scan().Snapshot().Status != StatusIdle {
		t.Error("restore must not touch scan state")
	}
}

func TestStoreErrorsDoNotFailCycle(t *testing.T) {
	p := &fakeProvider{resp: ai.Response{Text: twoArticles}}
	c := newTestController(p, Options{Store: &fakeStore{err: errors.New("disk full")}})
	if err := c.Search(context.Background(), "x"); err != nil {
		t.Errorf("store errors should be logged only, got %v", err)
	}
	if len(c.Articles()) != 2 {
		t.Error("articles should still be shown")
	}
}

func TestOnChangeCalled(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	p := &fakeProvider{resp: ai.Response{Text: twoArticles}}
	c := newTestController(p, Options{OnChange: func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}})
	c.Search(context.Background(), "x")
	mu.Lock()
	defer mu.Unlock()
	if calls < 2 {
		t.Errorf("expected notifications at cycle start and end, got %d", calls)
	}
}

func TestCanceledCycleKeepsArticles(t *testing.T) {
	p := &fakeProvider{resp: ai.Response{Text: twoArticles}}
	c := newTestController(p, Options{})
	c.Search(context.Background(), "x")

	p.block = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Refresh(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(c.Articles()) != 2 {
		t.Error("canceled cycle should not replace articles")
	}
	if c.Scan().InFlight() {
		t.Error("scan should be reset after cancel")
	}
}

type fakeSpeaker struct {
	text, voice string
	err         error
}

func (s *fakeSpeaker) Speak(_ context.Context, text, voice string) ([]byte, error) {
	s.text, s.voice = text, voice
	return []byte("audio"), s.err
}

func TestSpeak(t *testing.T) {
	c := newTestController(&fakeProvider{}, Options{})
	if _, err := c.Speak(context.Background(), news.Article{Title: "x"}); !errors.Is(err, speech.ErrDisabled) {
		t.Errorf("expected ErrDisabled without speaker, got %v", err)
	}

	sp := &fakeSpeaker{}
	c = newTestController(&fakeProvider{}, Options{Speaker: sp, Voice: "Kore"})
	audio, err := c.Speak(context.Background(), news.Article{Title: "כותרת", Summary: "תקציר"})
	if err != nil || string(audio) != "audio" {
		t.Fatalf("Speak = %q, %v", audio, err)
	}
	if sp.text != "כותרת. תקציר" || sp.voice != "Kore" {
		t.Errorf("unexpected speech request %q %q", sp.text, sp.voice)
	}
	if c.Scan().Snapshot().Status != StatusIdle {
		t.Error("speech must not touch scan state")
	}

	sp.err = speech.ErrNoAudio
	if _, err := c.Speak(context.Background(), news.Article{Title: "x"}); !errors.Is(err, speech.ErrNoAudio) {
		t.Errorf("expected wrapped ErrNoAudio, got %v", err)
	}
}
