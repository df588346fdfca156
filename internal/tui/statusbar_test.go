package tui

import (
	"testing"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/schedule"
)

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "0:00"},
		{-4, "0:00"},
		{59, "0:59"},
		{120, "2:00"},
		{3600, "1:00:00"},
		{86399, "23:59:59"},
	}
	for _, tt := range tests {
		if got := formatCountdown(tt.secs); got != tt.want {
			t.Errorf("formatCountdown(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestModeLabelsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range schedule.Modes() {
		l := modeLabel(m)
		if seen[l] {
			t.Errorf("duplicate label %q", l)
		}
		seen[l] = true
	}
}

func TestFilterBar(t *testing.T) {
	f := newFilterBar()
	if f.selected() != "" {
		t.Fatalf("first tab should be all, got %q", f.selected())
	}
	f.moveLeft()
	if f.cursor != 0 {
		t.Error("moveLeft should stop at the first tab")
	}
	f.moveRight()
	if f.selected() != classify.AllCategories()[0] {
		t.Errorf("selected = %q", f.selected())
	}
	for range 20 {
		f.moveRight()
	}
	if f.cursor != len(f.categories)-1 {
		t.Error("moveRight should stop at the last tab")
	}

	f.sync(classify.Sports)
	if f.selected() != classify.Sports {
		t.Errorf("sync: selected = %q", f.selected())
	}
	f.sync("Unknown")
	if f.cursor != 0 {
		t.Error("sync with an unknown category should reset to all")
	}
}
