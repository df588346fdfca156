// Package dashboard holds the dashboard state and runs fetch cycles
// against it. The Controller is the only writer of that state.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/ai"
	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/news"
	"github.com/IDAN2468D/NovaNews/internal/normalize"
	"github.com/IDAN2468D/NovaNews/internal/prefs"
	"github.com/IDAN2468D/NovaNews/internal/schedule"
	"github.com/IDAN2468D/NovaNews/internal/speech"
	"github.com/sirupsen/logrus"
)

var (
	// ErrBusy is returned when a cycle is already in flight. The request
	// is dropped, not queued.
	ErrBusy = errors.New("a refresh is already running")
	// ErrEmptyTopic is returned for a blank search topic.
	ErrEmptyTopic = errors.New("topic is empty")
)

// Status labels shown in the header.
const (
	StatusIdle      = "מוכן"
	StatusSearching = "מחפש חדשות..."
	StatusResearch  = "מבצע מחקר מעמיק..."
	StatusImage     = "מנתח תמונה..."
	StatusDone      = "עודכן"
	StatusFailed    = "העדכון נכשל"

	bannerFetchFailed = "שגיאה בטעינת החדשות"
	bannerUnparseable = "התשובה לא פוענחה"
	bannerEmpty       = "לא נמצאו חדשות בנושא זה"
)

// Kind is the type of the cycle that produced the current articles.
type Kind int

const (
	KindSearch Kind = iota
	KindResearch
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindResearch:
		return "research"
	case KindImage:
		return "image"
	default:
		return "search"
	}
}

// ArticleStore persists the last-known articles per topic.
type ArticleStore interface {
	SaveTopic(topic string, articles []news.Article, fetchedAt time.Time) error
	TopicArticles(topic string) ([]news.Article, error)
	SetLastRefresh(t time.Time) error
}

// PrefWriter persists preference changes.
type PrefWriter interface {
	SaveHistory(ctx context.Context, history []string)
	SaveFocus(ctx context.Context, on bool)
	SaveMode(ctx context.Context, m schedule.Mode)
}

// Refresher is the part of schedule.Refresher the controller drives.
type Refresher interface {
	SetMode(m schedule.Mode)
	Remaining() int
}

type Options struct {
	Provider    ai.Provider
	Speaker     speech.Speaker
	Voice       string
	Store       ArticleStore
	Prefs       PrefWriter
	Initial     prefs.Prefs
	Topic       string
	HistorySize int
	Log         logrus.FieldLogger
	Now         func() time.Time
	// OnChange is called after every state change, outside the lock.
	OnChange func()
}

// Snapshot is a copy of the dashboard state for rendering.
type Snapshot struct {
	Topic    string
	Articles []news.Article
	Kind     Kind
	Category classify.Category
	Focus    bool
	Mode     schedule.Mode
	Banner   string
	History  []string
	Scan     schedule.ScanSnapshot
}

type Controller struct {
	provider ai.Provider
	speaker  speech.Speaker
	voice    string
	store    ArticleStore
	prefs    PrefWriter
	maxHist  int
	log      logrus.FieldLogger
	now      func() time.Time
	onChange func()

	scan *schedule.ScanState

	mu        sync.Mutex
	refresher Refresher
	topic     string
	articles  []news.Article
	kind      Kind
	category  classify.Category
	focus     bool
	mode      schedule.Mode
	banner    string
	history   []string
}

func New(opts Options) *Controller {
	c := &Controller{
		provider: opts.Provider,
		speaker:  opts.Speaker,
		voice:    opts.Voice,
		store:    opts.Store,
		prefs:    opts.Prefs,
		maxHist:  opts.HistorySize,
		log:      opts.Log,
		now:      opts.Now,
		onChange: opts.OnChange,
		scan:     schedule.NewScanState(StatusIdle),
		topic:    strings.TrimSpace(opts.Topic),
		focus:    opts.Initial.Focus,
		mode:     opts.Initial.Mode,
		history:  append([]string(nil), opts.Initial.History...),
	}
	if c.maxHist <= 0 {
		c.maxHist = prefs.DefaultHistorySize
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	c.log = c.log.WithField("component", "dashboard")
	if c.now == nil {
		c.now = time.Now
	}
	if c.mode == "" {
		c.mode = schedule.Off
	}
	if len(c.history) > c.maxHist {
		c.history = c.history[:c.maxHist]
	}
	return c
}

// Scan returns the scan state shared with the refresher.
func (c *Controller) Scan() *schedule.ScanState {
	return c.scan
}

// AttachRefresher connects the auto-refresh timer and arms it with the
// current mode.
func (c *Controller) AttachRefresher(r Refresher) {
	c.mu.Lock()
	c.refresher = r
	mode := c.mode
	c.mu.Unlock()
	r.SetMode(mode)
}

// SetOnChange replaces the change callback.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Topic returns the current topic.
func (c *Controller) Topic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topic
}

// Restore loads the last-known articles for the current topic from the
// store, if any. It does not touch the scan state.
func (c *Controller) Restore() int {
	if c.store == nil {
		return 0
	}
	topic := c.Topic()
	articles, err := c.store.TopicArticles(topic)
	if err != nil {
		c.log.WithError(err).WithField("topic", topic).Warn("loading cached articles")
		return 0
	}
	c.mu.Lock()
	if len(c.articles) == 0 {
		c.articles = articles
	}
	c.mu.Unlock()
	c.notify()
	return len(articles)
}

// Search sets the topic, records it in the history and runs a plain cycle.
func (c *Controller) Search(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ErrEmptyTopic
	}
	if !c.scan.TryBegin(StatusSearching) {
		return ErrBusy
	}

	c.mu.Lock()
	c.topic = topic
	c.history = prefs.PushHistory(c.history, topic, c.maxHist)
	history := append([]string(nil), c.history...)
	c.mu.Unlock()
	if c.prefs != nil {
		c.prefs.SaveHistory(ctx, history)
	}

	return c.cycle(ctx, KindSearch, topic, func(ctx context.Context) (ai.Response, error) {
		return c.provider.Search(ctx, topic)
	})
}

// Research runs a deep-research cycle. A blank topic researches the
// current one.
func (c *Controller) Research(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = c.Topic()
	}
	if topic == "" {
		return ErrEmptyTopic
	}
	if !c.scan.TryBegin(StatusResearch) {
		return ErrBusy
	}

	c.mu.Lock()
	c.topic = topic
	c.mu.Unlock()

	return c.cycle(ctx, KindResearch, topic, func(ctx context.Context) (ai.Response, error) {
		return c.provider.Research(ctx, topic)
	})
}

// Refresh runs a plain cycle for the current topic.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.RefreshTopic(ctx, c.Topic())
}

// RefreshTopic runs a plain cycle for topic without recording history.
// It is the auto-refresh cycle.
func (c *Controller) RefreshTopic(ctx context.Context, topic string) error {
	if strings.TrimSpace(topic) == "" {
		return ErrEmptyTopic
	}
	if !c.scan.TryBegin(StatusSearching) {
		return ErrBusy
	}
	return c.cycle(ctx, KindSearch, topic, func(ctx context.Context) (ai.Response, error) {
		return c.provider.Search(ctx, topic)
	})
}

// Analyze runs an image-analysis cycle that yields a single record.
func (c *Controller) Analyze(ctx context.Context, data []byte, mime string) error {
	if !c.scan.TryBegin(StatusImage) {
		return ErrBusy
	}
	return c.cycle(ctx, KindImage, "", func(ctx context.Context) (ai.Response, error) {
		return c.provider.AnalyzeImage(ctx, data, mime)
	})
}

// cycle runs one fetch after TryBegin succeeded. The scan state is always
// ended, and the last-success time moves only when the collaborator
// answered.
func (c *Controller) cycle(ctx context.Context, kind Kind, topic string, fetch func(context.Context) (ai.Response, error)) error {
	ok := false
	defer func() {
		status := StatusDone
		if !ok {
			status = StatusFailed
		}
		c.scan.End(ok, status, c.now())
		c.notify()
	}()
	c.notify()

	log := c.log.WithFields(logrus.Fields{"topic": topic, "kind": kind})
	start := c.now()

	resp, err := fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.WithError(err).Debug("cycle canceled")
			return ctx.Err()
		}
		log.WithError(err).Error("fetch failed")
		c.apply(kind, []news.Article{normalize.ErrorPlaceholder()}, fmt.Sprintf("%s: %v", bannerFetchFailed, err))
		return fmt.Errorf("fetching news: %w", err)
	}
	ok = true

	var res normalize.Result
	switch kind {
	case KindImage:
		res = normalize.Image(resp.Text)
	case KindResearch:
		res = normalize.GroundedArticles(resp.Text, resp.Links, resp.Sources, normalize.LinksCycle)
	default:
		res = normalize.GroundedArticles(resp.Text, resp.Links, resp.Sources, normalize.LinksByIndex)
	}

	banner := ""
	switch res.Outcome {
	case normalize.Empty:
		banner = bannerEmpty
	case normalize.Unparseable:
		banner = bannerUnparseable
		log.WithField("bytes", len(resp.Text)).Warn("response could not be parsed")
	}
	articles := res.OrPlaceholder()
	c.apply(kind, articles, banner)

	log.WithFields(logrus.Fields{
		"outcome":  res.Outcome.String(),
		"articles": len(res.Articles),
		"links":    len(resp.Links),
		"took":     c.now().Sub(start).Round(time.Millisecond),
	}).Info("cycle finished")

	if res.Outcome == normalize.OK && kind != KindImage {
		c.persist(topic, res.Articles)
	}
	return nil
}

func (c *Controller) apply(kind Kind, articles []news.Article, banner string) {
	c.mu.Lock()
	c.articles = articles
	c.kind = kind
	c.banner = banner
	c.mu.Unlock()
}

func (c *Controller) persist(topic string, articles []news.Article) {
	if c.store == nil {
		return
	}
	now := c.now()
	if err := c.store.SaveTopic(topic, articles, now); err != nil {
		c.log.WithError(err).WithField("topic", topic).Warn("caching articles")
	}
	if err := c.store.SetLastRefresh(now); err != nil {
		c.log.WithError(err).Warn("recording last refresh")
	}
}

// SetRefreshMode changes and persists the auto-refresh cadence.
func (c *Controller) SetRefreshMode(ctx context.Context, m schedule.Mode) {
	c.mu.Lock()
	c.mode = m
	r := c.refresher
	c.mu.Unlock()

	if r != nil {
		r.SetMode(m)
	}
	if c.prefs != nil {
		c.prefs.SaveMode(ctx, m)
	}
	c.notify()
}

// CycleRefreshMode advances to the next mode and returns it.
func (c *Controller) CycleRefreshMode(ctx context.Context) schedule.Mode {
	c.mu.Lock()
	next := c.mode.Next()
	c.mu.Unlock()
	c.SetRefreshMode(ctx, next)
	return next
}

// Remaining is the number of seconds until the next auto-refresh, or 0.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	r := c.refresher
	c.mu.Unlock()
	if r == nil {
		return 0
	}
	return r.Remaining()
}

// ToggleFocus flips focus mode, persists it and returns the new value.
func (c *Controller) ToggleFocus(ctx context.Context) bool {
	c.mu.Lock()
	c.focus = !c.focus
	on := c.focus
	c.mu.Unlock()

	if c.prefs != nil {
		c.prefs.SaveFocus(ctx, on)
	}
	c.notify()
	return on
}

// SetCategory filters the visible articles. An empty category shows all.
func (c *Controller) SetCategory(cat classify.Category) {
	c.mu.Lock()
	c.category = cat
	c.mu.Unlock()
	c.notify()
}

// SetBanner replaces the banner message. An empty message clears it.
func (c *Controller) SetBanner(msg string) {
	c.mu.Lock()
	c.banner = msg
	c.mu.Unlock()
	c.notify()
}

// Articles returns all current articles regardless of the filter.
func (c *Controller) Articles() []news.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]news.Article(nil), c.articles...)
}

// Visible returns the articles that pass the category filter.
func (c *Controller) Visible() []news.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filter(c.articles, c.category)
}

func filter(articles []news.Article, cat classify.Category) []news.Article {
	if cat == "" {
		return append([]news.Article(nil), articles...)
	}
	var out []news.Article
	for _, a := range articles {
		if a.Category == cat {
			out = append(out, a)
		}
	}
	return out
}

// History returns the search history, most recent first.
func (c *Controller) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.history...)
}

// ClearHistory empties and persists the search history.
func (c *Controller) ClearHistory(ctx context.Context) {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
	if c.prefs != nil {
		c.prefs.SaveHistory(ctx, nil)
	}
	c.notify()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Topic:    c.topic,
		Articles: filter(c.articles, c.category),
		Kind:     c.kind,
		Category: c.category,
		Focus:    c.focus,
		Mode:     c.mode,
		Banner:   c.banner,
		History:  append([]string(nil), c.history...),
		Scan:     c.scan.Snapshot(),
	}
}

// Speak synthesizes a reading of a. It does not affect the scan state.
func (c *Controller) Speak(ctx context.Context, a news.Article) ([]byte, error) {
	if c.speaker == nil {
		return nil, speech.ErrDisabled
	}
	audio, err := c.speaker.Speak(ctx, speech.ArticleText(a), c.voice)
	if err != nil {
		c.log.WithError(err).Warn("speech failed")
		return nil, fmt.Errorf("speaking article: %w", err)
	}
	return audio, nil
}
