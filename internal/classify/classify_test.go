package classify

import "testing"

func TestNormalizeCanonical(t *testing.T) {
	for _, cat := range AllCategories() {
		if got := Normalize(string(cat)); got != cat {
			t.Errorf("Normalize(%q) = %q, want %q", cat, got, cat)
		}
	}
}

func TestNormalizeCaseInsensitive(t *testing.T) {
	if got := Normalize("  technology "); got != Technology {
		t.Errorf("expected Technology, got %s", got)
	}
	if got := Normalize("SPORTS"); got != Sports {
		t.Errorf("expected Sports, got %s", got)
	}
}

func TestNormalizeHebrewLabel(t *testing.T) {
	if got := Normalize("כלכלה"); got != Economy {
		t.Errorf("expected Economy, got %s", got)
	}
}

func TestNormalizeUnknownIsGeneral(t *testing.T) {
	for _, raw := range []string{"", "Tech", "Weather", "   "} {
		if got := Normalize(raw); got != General {
			t.Errorf("Normalize(%q) = %q, want General", raw, got)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := Label(Science); got != "מדע" {
		t.Errorf("unexpected label %q", got)
	}
	if got := Label(Category("bogus")); got != Label(General) {
		t.Errorf("expected General label for unknown category, got %q", got)
	}
}

func TestResolveAlias(t *testing.T) {
	tests := []struct {
		alias    string
		expected Category
		wantErr  bool
	}{
		{"tech", Technology, false},
		{"econ", Economy, false},
		{"business", Economy, false},
		{"fun", Entertainment, false},
		{"World", World, false},
		{"Technology", Technology, false}, // full name
		{"bogus", "", true},
	}

	for _, tt := range tests {
		got, err := ResolveAlias(tt.alias)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ResolveAlias(%q): expected error", tt.alias)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveAlias(%q): unexpected error: %v", tt.alias, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ResolveAlias(%q) = %q, want %q", tt.alias, got, tt.expected)
		}
	}
}

func TestAllCategories(t *testing.T) {
	cats := AllCategories()
	if len(cats) != 9 {
		t.Errorf("expected 9 categories, got %d", len(cats))
	}
	if cats[len(cats)-1] != General {
		t.Errorf("expected General last, got %s", cats[len(cats)-1])
	}
}
