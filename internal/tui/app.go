package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/browser"
	"github.com/IDAN2468D/NovaNews/internal/dashboard"
	"github.com/IDAN2468D/NovaNews/internal/digest"
	"github.com/IDAN2468D/NovaNews/internal/logging"
	"github.com/IDAN2468D/NovaNews/internal/news"
	"github.com/IDAN2468D/NovaNews/internal/schedule"
	"github.com/IDAN2468D/NovaNews/internal/speech"
	"github.com/IDAN2468D/NovaNews/internal/update"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const (
	cycleTimeout       = 2 * time.Minute
	speechTimeout      = time.Minute
	speechStatusPeriod = 2 * time.Second
)

var speechSteps = []string{
	"מכין הקראה...",
	"ממיר טקסט לדיבור...",
	"כמעט מוכן...",
}

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeHome mode = iota
	modeNormal
	modeInput
	modeFilter
	modeHistory
	modeHelp
)

type inputPurpose int

const (
	inputSearch inputPurpose = iota
	inputImage
)

type App struct {
	ctx context.Context
	ctl *dashboard.Controller
	log logrus.FieldLogger
	now func() time.Time

	snap   dashboard.Snapshot
	cursor int
	focus  focusPane
	mode   mode
	back   mode

	width  int
	height int

	input     textinput.Model
	purpose   inputPurpose
	spinner   spinner.Model
	spinning  bool
	filterBar filterBar
	history   historyPane

	remaining int
	countdown timer

	speaking    bool
	playing     bool
	speechStep  int
	speechTimer timer

	previewScroll int
	exportDir     string
	streak        int
	version       string
	updateVersion string
	autoFetch     bool
	notice        string
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Ctx        context.Context
	Controller *dashboard.Controller
	ExportDir  string
	Streak     int
	Version    string
	// AutoFetch searches the current topic on start.
	AutoFetch bool
	Log       logrus.FieldLogger
	Now       func() time.Time
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	a := &App{
		ctx:       ctx,
		ctl:       opts.Controller,
		log:       log,
		now:       now,
		input:     ti,
		spinner:   sp,
		filterBar: newFilterBar(),
		exportDir: opts.ExportDir,
		streak:    opts.Streak,
		version:   opts.Version,
		autoFetch: opts.AutoFetch,
		mode:      modeHome,
	}
	a.sync()
	return a
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.startCountdown(), a.checkUpdateCmd()}
	if a.autoFetch {
		topic := a.snap.Topic
		cmds = append(cmds, a.cycleCmd(func(ctx context.Context) error {
			return a.ctl.Search(ctx, topic)
		}))
	}
	return tea.Batch(cmds...)
}

// sync copies the controller state into the view.
func (a *App) sync() {
	a.snap = a.ctl.Snapshot()
	if a.cursor >= len(a.snap.Articles) {
		a.cursor = max(0, len(a.snap.Articles)-1)
	}
	a.filterBar.sync(a.snap.Category)
	a.history.clamp(len(a.snap.History))
}

func (a *App) banner(msg string) {
	a.ctl.SetBanner(msg)
	a.sync()
}

func (a *App) selected() *news.Article {
	if a.cursor < len(a.snap.Articles) {
		return &a.snap.Articles[a.cursor]
	}
	return nil
}

func (a *App) cycleCmd(run func(context.Context) error) tea.Cmd {
	parent := a.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, cycleTimeout)
		defer cancel()
		return cycleDoneMsg{err: run(ctx)}
	}
}

func (a *App) checkUpdateCmd() tea.Cmd {
	ctx, version := a.ctx, a.version
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return updateMsg{result: update.Check(ctx, version)}
	}
}

// startCountdown restarts the once-a-second header countdown, or stops
// it when auto-refresh is off.
func (a *App) startCountdown() tea.Cmd {
	if a.snap.Mode == schedule.Off {
		a.countdown.stop()
		a.remaining = 0
		return nil
	}
	a.remaining = a.ctl.Remaining()
	return a.countdown.start(time.Second, func(gen int) tea.Msg { return countdownTickMsg{gen: gen} })
}

func (a *App) imageCmd(path string) tea.Cmd {
	ctl, parent := a.ctl, a.ctx
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return errMsg{err: fmt.Errorf("reading image: %w", err)}
		}
		mt := mimetype.Detect(data)
		if !strings.HasPrefix(mt.String(), "image/") {
			return errMsg{err: fmt.Errorf("%s is %s, not an image", path, mt.String())}
		}
		ctx, cancel := context.WithTimeout(parent, cycleTimeout)
		defer cancel()
		return cycleDoneMsg{err: ctl.Analyze(ctx, data, mt.String())}
	}
}

func (a *App) speakCmd(article news.Article) tea.Cmd {
	ctl, parent := a.ctl, a.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, speechTimeout)
		defer cancel()
		audio, err := ctl.Speak(ctx, article)
		if err != nil {
			return speechReadyMsg{err: err}
		}
		path, err := speech.SaveTemp(audio)
		return speechReadyMsg{path: path, err: err}
	}
}

func (a *App) playCmd(path string) tea.Cmd {
	parent := a.ctx
	return func() tea.Msg {
		err := speech.Play(parent, path)
		os.Remove(path)
		return playbackDoneMsg{err: err}
	}
}

func (a *App) exportCmd() tea.Cmd {
	dir, articles, now := a.exportDir, a.snap.Articles, a.now()
	return func() tea.Msg {
		path, err := digest.Export(dir, articles, now)
		if err != nil {
			return errMsg{err: err}
		}
		return noticeMsg{text: "יוצא אל " + path}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		a.notice = ""
		return a.handleKey(msg)

	case stateChangedMsg:
		a.sync()
		if a.snap.Scan.InFlight && !a.spinning {
			a.spinning = true
			return a, a.spinner.Tick
		}
		return a, nil

	case cycleDoneMsg:
		switch {
		case errors.Is(msg.err, dashboard.ErrBusy):
			a.notice = "עדכון כבר מתבצע"
		case errors.Is(msg.err, dashboard.ErrEmptyTopic):
			a.notice = "יש להזין נושא"
		case errors.Is(msg.err, context.Canceled):
		default:
			if msg.err != nil {
				a.log.WithError(msg.err).Warn("cycle failed")
			}
			a.cursor = 0
			a.previewScroll = 0
		}
		a.sync()
		return a, nil

	case countdownTickMsg:
		if !a.countdown.current(msg.gen) || a.snap.Mode == schedule.Off {
			return a, nil
		}
		a.remaining = a.ctl.Remaining()
		return a, a.countdown.start(time.Second, func(gen int) tea.Msg { return countdownTickMsg{gen: gen} })

	case confirmExpiredMsg:
		a.history.expire(msg.gen)
		return a, nil

	case speechStatusMsg:
		if !a.speechTimer.current(msg.gen) || !a.speaking {
			return a, nil
		}
		a.speechStep++
		return a, a.speechTimer.start(speechStatusPeriod, func(gen int) tea.Msg { return speechStatusMsg{gen: gen} })

	case speechReadyMsg:
		a.speechTimer.stop()
		a.speaking = false
		if msg.err != nil {
			a.log.WithError(msg.err).Warn("speech unavailable")
			if errors.Is(msg.err, speech.ErrDisabled) {
				a.notice = "ההקראה כבויה בהגדרות"
				return a, nil
			}
			a.banner("ההקראה נכשלה")
			return a, nil
		}
		a.playing = true
		return a, a.playCmd(msg.path)

	case playbackDoneMsg:
		a.playing = false
		if msg.err != nil {
			a.log.WithError(msg.err).Warn("playback failed")
			a.banner("לא ניתן להשמיע את ההקראה")
		}
		return a, nil

	case noticeMsg:
		a.notice = msg.text
		return a, nil

	case errMsg:
		a.log.WithError(msg.err).Warn("action failed")
		a.banner(msg.err.Error())
		return a, nil

	case updateMsg:
		if msg.result != nil {
			a.updateVersion = msg.result.LatestVersion
		}
		return a, nil

	case spinner.TickMsg:
		if a.snap.Scan.InFlight {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		a.spinning = false
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeHome:
		return a.handleHomeKey(msg)
	case modeInput:
		return a.handleInputKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHistory:
		return a.handleHistoryKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList || a.snap.Focus {
			if a.cursor < len(a.snap.Articles)-1 {
				a.cursor++
				a.previewScroll = 0
			}
		} else {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList || a.snap.Focus {
			if a.cursor > 0 {
				a.cursor--
				a.previewScroll = 0
			}
		} else if a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "o", "enter":
		if art := a.selected(); art != nil && art.SourceURL != "" {
			return a, openBrowserCmd(art.SourceURL)
		}
		return a, nil
	case "/":
		return a, a.openInput(inputSearch)
	case "i":
		return a, a.openInput(inputImage)
	case "d":
		topic := a.snap.Topic
		return a, a.cycleCmd(func(ctx context.Context) error { return a.ctl.Research(ctx, topic) })
	case "r":
		return a, a.cycleCmd(a.ctl.Refresh)
	case "m":
		a.ctl.CycleRefreshMode(a.ctx)
		a.sync()
		a.notice = modeLabel(a.snap.Mode)
		return a, a.startCountdown()
	case "z":
		a.ctl.ToggleFocus(a.ctx)
		a.sync()
		return a, nil
	case "f":
		a.mode = modeFilter
		a.filterBar.sync(a.snap.Category)
		return a, nil
	case "H":
		a.back = modeNormal
		a.mode = modeHistory
		return a, nil
	case "s":
		return a, a.startSpeech()
	case "c":
		a.copyDigest()
		return a, nil
	case "x":
		return a, a.exportCmd()
	case "esc":
		if a.snap.Banner != "" {
			a.banner("")
		}
		return a, nil
	case "h":
		a.mode = modeHome
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) openInput(p inputPurpose) tea.Cmd {
	a.back = a.mode
	a.mode = modeInput
	a.purpose = p
	a.input.SetValue("")
	if p == inputImage {
		a.input.Prompt = searchPromptStyle.Render("תמונה: ")
		a.input.Placeholder = "נתיב לקובץ תמונה"
	} else {
		a.input.Prompt = searchPromptStyle.Render("/ ")
		a.input.Placeholder = "חיפוש נושא..."
	}
	a.input.Focus()
	return textinput.Blink
}

func (a *App) startSpeech() tea.Cmd {
	art := a.selected()
	if art == nil || a.speaking || a.playing {
		return nil
	}
	a.speaking = true
	a.speechStep = 0
	return tea.Batch(
		a.speakCmd(*art),
		a.speechTimer.start(speechStatusPeriod, func(gen int) tea.Msg { return speechStatusMsg{gen: gen} }),
	)
}

func (a *App) copyDigest() {
	if err := clipboard.WriteAll(digest.Text(a.snap.Articles)); err != nil {
		a.log.WithError(err).Warn("clipboard write failed")
		a.banner("ההעתקה ללוח נכשלה")
		return
	}
	a.notice = "התקציר הועתק ללוח"
}

func (a *App) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "e", "enter":
		a.mode = modeNormal
		return a, nil
	case "/":
		return a, a.openInput(inputSearch)
	case "H":
		a.back = modeHome
		a.mode = modeHistory
		return a, nil
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = a.back
		a.input.Blur()
		return a, nil
	case "enter":
		value := strings.TrimSpace(a.input.Value())
		a.mode = modeNormal
		a.input.Blur()
		if value == "" {
			return a, nil
		}
		if a.purpose == inputImage {
			return a, a.imageCmd(value)
		}
		return a, a.cycleCmd(func(ctx context.Context) error { return a.ctl.Search(ctx, value) })
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		return a, nil
	case "left", "h":
		a.filterBar.moveLeft()
		return a, nil
	case "right", "l":
		a.filterBar.moveRight()
		return a, nil
	case " ", "enter":
		a.ctl.SetCategory(a.filterBar.selected())
		a.cursor = 0
		a.sync()
		return a, nil
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '0')
		if idx < len(a.filterBar.categories) {
			a.filterBar.cursor = idx
			a.ctl.SetCategory(a.filterBar.selected())
			a.cursor = 0
			a.sync()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(a.snap.History)
	switch msg.String() {
	case "esc", "H", "q":
		a.mode = a.back
		return a, nil
	case "j", "down":
		if a.history.cursor < n-1 {
			a.history.cursor++
		}
		return a, nil
	case "k", "up":
		if a.history.cursor > 0 {
			a.history.cursor--
		}
		return a, nil
	case "c":
		a.ctl.ClearHistory(a.ctx)
		a.sync()
		return a, nil
	case "enter":
		if n == 0 {
			return a, nil
		}
		topic := a.snap.History[a.history.cursor]
		if !a.history.choose(topic, a.snap.Topic) {
			return a, a.history.confirm.start(confirmWindowSeconds*time.Second, func(gen int) tea.Msg {
				return confirmExpiredMsg{gen: gen}
			})
		}
		a.mode = modeNormal
		return a, a.cycleCmd(func(ctx context.Context) error { return a.ctl.Search(ctx, topic) })
	}
	return a, nil
}

func (a *App) withBottomBar(content string, hints string) string {
	bar := renderStatusBar(len(a.snap.Articles), a.snap.Category, a.streak, a.width, hints)
	lines := strings.Split(content, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) statusText() string {
	if a.speaking {
		return speechSteps[a.speechStep%len(speechSteps)]
	}
	if a.playing {
		return "מקריא..."
	}
	return a.snap.Scan.Status
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  NovaNews")
	}

	if a.mode == modeHome {
		ov := digest.NewOverview(a.snap.Articles, a.now())
		return a.withBottomBar(
			renderHomeScreen(a.width, a.height-1, ov, a.snap.Topic, a.streak, a.updateVersion),
			"e לוח  / חיפוש  H היסטוריה  q יציאה",
		)
	}

	if a.mode == modeHelp {
		return a.withBottomBar(a.renderHelp(), "? סגירה  q יציאה")
	}

	if a.mode == modeInput && a.back == modeHome {
		return a.withBottomBar(
			lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, a.input.View()),
			"enter אישור  esc ביטול",
		)
	}

	var spin string
	if a.snap.Scan.InFlight {
		spin = a.spinner.View()
	}
	header := renderHeader(headerInfo{
		topic:     a.snap.Topic,
		mode:      a.snap.Mode,
		remaining: a.remaining,
		status:    a.statusText(),
		spinner:   spin,
		updated:   ago(a.snap.Scan.LastSuccess, a.now()),
	}, a.width)

	bar := a.filterBar.View(a.snap.Category, a.mode == modeFilter, a.width)
	if a.mode == modeInput {
		bar = a.input.View()
	}

	message := ""
	switch {
	case a.snap.Banner != "":
		message = bannerStyle.Render(a.snap.Banner)
	case a.notice != "":
		message = noticeStyle.Render(a.notice)
	}

	// header, filter, message, status and pane borders
	contentHeight := a.height - 4 - 4
	if contentHeight < 3 {
		contentHeight = 3
	}

	var content string
	switch {
	case a.mode == modeHistory:
		content = renderHistory(a.snap.History, a.history.cursor, a.history.pending, a.width, contentHeight+2)
	case a.snap.Focus:
		content = renderFocus(a.selected(), a.cursor, len(a.snap.Articles), a.width, contentHeight+2)
	default:
		content = a.renderPanes(contentHeight)
	}

	return a.withBottomBar(
		lipgloss.JoinVertical(lipgloss.Left, header, bar, message, content),
		a.hints(),
	)
}

func (a *App) renderPanes(contentHeight int) string {
	listWidth := int(float64(a.width) * 0.35)
	previewWidth := a.width - listWidth - 1

	listContent := renderList(a.snap.Articles, a.cursor, contentHeight, listWidth-4)
	listStyle := listPaneStyle
	if a.focus == focusList {
		listStyle = listPaneActiveStyle
	}
	listPane := listStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)

	previewContent := renderPreview(a.selected(), previewWidth-4, contentHeight, a.previewScroll)
	previewStyle := previewPaneStyle
	if a.focus == focusPreview {
		previewStyle = previewPaneActiveStyle
	}
	previewPane := previewStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)
}

func (a *App) hints() string {
	switch a.mode {
	case modeInput:
		return "enter אישור  esc ביטול"
	case modeFilter:
		return "←/→ בחירה  enter סינון  esc סגירה"
	case modeHistory:
		return "enter חיפוש  c ניקוי  esc חזרה"
	}
	return "/ חיפוש  d מחקר  m מצב  s הקראה  ? עזרה  q יציאה"
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("NovaNews")
	dim := helpDimStyle

	help := title + dim.Render(" · קיצורי מקלדת") + "\n\n" +
		dim.Render("ניווט") + "\n" +
		"  j/k, ↑/↓     מעבר בין כתבות\n" +
		"  tab           מעבר בין רשימה לתצוגה\n" +
		"  z             מצב מיקוד\n\n" +
		dim.Render("פעולות") + "\n" +
		"  /             חיפוש נושא\n" +
		"  d             מחקר מעמיק בנושא הנוכחי\n" +
		"  i             ניתוח תמונה\n" +
		"  r             רענון\n" +
		"  m             החלפת מצב רענון אוטומטי\n" +
		"  f             סינון לפי קטגוריה\n" +
		"  H             היסטוריית חיפוש\n" +
		"  s             הקראת הכתבה\n" +
		"  c             העתקת תקציר ללוח\n" +
		"  x             ייצוא לקובץ JSON\n" +
		"  o, enter      פתיחה בדפדפן\n\n" +
		dim.Render("כללי") + "\n" +
		"  esc           הסתרת הודעה\n" +
		"  h             מסך הבית\n" +
		"  ?             עזרה\n" +
		"  q, ctrl+c     יציאה"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application. Controller changes are forwarded to the
// program from their own goroutine so that changes made inside Update
// never block the event loop.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	opts.Controller.SetOnChange(func() {
		go p.Send(stateChangedMsg{})
	})
	defer opts.Controller.SetOnChange(nil)
	_, err := p.Run()
	return err
}
