package internal

import (
	"strings"
	"testing"

	"github.com/jmsie/aeo/testutil"
)

var diffPairs = []struct {
	name string
	old  string
	new  string
}{
	{"identical", "same text", "same text"},
	{"append", "hello", "hello world"},
	{"prepend", "world", "hello world"},
	{"replace word", "Go is a closed language", "Go is an open language"},
	{"delete all", "gone", ""},
	{"from empty", "", "fresh"},
	{"markup characters", "a < b & c", "a <= b && c"},
	{"quotes", `say "hi"`, `say 'hi'`},
	{"multiline", "line one\nline two\n", "line one\nline 2\nline three\n"},
	{"unicode", "搜尋引擎優化", "生成式引擎優化"},
}

func TestDiff_PartitionsInputs(t *testing.T) {
	for _, tt := range diffPairs {
		t.Run(tt.name, func(t *testing.T) {
			segments := Diff(tt.old, tt.new)
			gotOld, gotNew := SplitSegments(segments)
			if gotOld != tt.old {
				t.Errorf("equal+delete = %q, want %q", gotOld, tt.old)
			}
			if gotNew != tt.new {
				t.Errorf("equal+insert = %q, want %q", gotNew, tt.new)
			}
			for _, s := range segments {
				if s.Text == "" {
					t.Errorf("Diff() produced an empty %s segment", s.Op)
				}
			}
		})
	}
}

func TestDiff_Deterministic(t *testing.T) {
	for _, tt := range diffPairs {
		a := RenderMarkup(Diff(tt.old, tt.new))
		b := RenderMarkup(Diff(tt.old, tt.new))
		if a != b {
			t.Errorf("%s: rendering differs between runs", tt.name)
		}
	}
}

func TestExtractPlainText_RoundTrip(t *testing.T) {
	for _, tt := range diffPairs {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPlainText(EscapeText(tt.new)); got != tt.new {
				t.Errorf("ExtractPlainText(EscapeText(x)) = %q, want %q", got, tt.new)
			}
			rendered := RenderMarkup(Diff(tt.old, tt.new))
			if got := ExtractPlainText(rendered); got != tt.new {
				t.Errorf("ExtractPlainText(rendered) = %q, want %q", got, tt.new)
			}
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"plain", "just text", "just text"},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"entities", "fish &amp; chips &lt;3", "fish & chips <3"},
		{"overlay", testutil.SampleMarkup, testutil.SampleMarkupPlain},
		{"class only", `keep<span class="aeo-del">drop</span>`, "keep"},
		{"style only", `keep<span style="background-color: #FEE2E2">drop</span>`, "keep"},
		{"rgb style", `keep<span style="background-color: rgb(254, 226, 226);">drop</span>`, "keep"},
		{"other span kept", `<span style="color:red">red</span> text`, "red text"},
		{"nested in deletion", `a<span class="aeo-del">b<span>c</span>d</span>e`, "ae"},
		{"other tags stripped", `<div><b>bold</b> move</div>`, "bold move"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPlainText(tt.markup); got != tt.want {
				t.Errorf("ExtractPlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	t.Run("no previous snapshot", func(t *testing.T) {
		markup, snapshot := Reconcile("", "fresh text")
		if markup != "fresh text" || snapshot != "" {
			t.Errorf("Reconcile() = %q, %q", markup, snapshot)
		}
	})

	t.Run("unchanged", func(t *testing.T) {
		markup, snapshot := Reconcile("same", "same")
		if markup != "same" || snapshot != "same" {
			t.Errorf("Reconcile() = %q, %q", markup, snapshot)
		}
	})

	t.Run("line endings only", func(t *testing.T) {
		current := EscapeText("line one\r\nline two")
		markup, snapshot := Reconcile("line one\r\nline two", current)
		if markup != current {
			t.Errorf("Reconcile() markup = %q, want it untouched", markup)
		}
		if snapshot != "line one\nline two" {
			t.Errorf("Reconcile() snapshot = %q", snapshot)
		}
		if strings.Contains(markup, deletionOpen) {
			t.Errorf("CRLF produced a deletion overlay: %q", markup)
		}
	})

	t.Run("changed", func(t *testing.T) {
		markup, snapshot := Reconcile("Go is a closed language", "Go is an open language")
		if !strings.Contains(markup, deletionOpen) || !strings.Contains(markup, insertionOpen) {
			t.Errorf("Reconcile() markup lacks overlay: %q", markup)
		}
		if snapshot != "Go is an open language" {
			t.Errorf("Reconcile() snapshot = %q", snapshot)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, tt := range diffPairs {
			if tt.old == "" {
				continue
			}
			m1, s1 := Reconcile(tt.old, EscapeText(tt.new))
			m2, s2 := Reconcile(s1, m1)
			if m2 != m1 || s2 != s1 {
				t.Errorf("%s: second Reconcile changed output: %q -> %q", tt.name, m1, m2)
			}
		}
	})
}

func TestSanitizeMarkup(t *testing.T) {
	in := `<script>alert(1)</script><span class="aeo-ins" style="background-color:#dcfce7" onclick="x()">ok</span><a href="http://x">link</a>`
	got := SanitizeMarkup(in)
	for _, bad := range []string{"<script", "onclick", "<a "} {
		if strings.Contains(got, bad) {
			t.Errorf("SanitizeMarkup() kept %q: %q", bad, got)
		}
	}
	if !strings.Contains(got, `class="aeo-ins"`) || !strings.Contains(got, "ok") {
		t.Errorf("SanitizeMarkup() dropped the insertion span: %q", got)
	}
}

func TestDiffOp_String(t *testing.T) {
	if DiffEqual.String() != "equal" || DiffDelete.String() != "delete" || DiffInsert.String() != "insert" {
		t.Error("DiffOp.String() returned unexpected names")
	}
}
