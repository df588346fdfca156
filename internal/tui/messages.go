package tui

import "github.com/IDAN2468D/NovaNews/internal/update"

// stateChangedMsg is sent by the controller after any state change,
// including cycles started by the auto-refresh timer.
type stateChangedMsg struct{}

type cycleDoneMsg struct {
	err error
}

type countdownTickMsg struct{ gen int }

type confirmExpiredMsg struct{ gen int }

type speechStatusMsg struct{ gen int }

type speechReadyMsg struct {
	path string
	err  error
}

type playbackDoneMsg struct {
	err error
}

type noticeMsg struct {
	text string
}

type errMsg struct {
	err error
}

type updateMsg struct {
	result *update.Result
}
