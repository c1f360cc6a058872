package internal

import (
	"strings"
	"testing"
)

func TestRenderSegments(t *testing.T) {
	segments := Diff("a closed door", "an open door")
	plain := RenderSegments(segments, false)
	if !strings.Contains(plain, "[-") || !strings.Contains(plain, "{+") || !strings.HasSuffix(plain, " door") {
		t.Errorf("RenderSegments() = %q", plain)
	}

	back := MarkupSegments(RenderMarkup(segments))
	if len(back) != len(segments) {
		t.Fatalf("MarkupSegments() = %+v, want %+v", back, segments)
	}
	for i := range back {
		if back[i] != segments[i] {
			t.Errorf("segment %d = %+v, want %+v", i, back[i], segments[i])
		}
	}
}

func TestRenderBadge(t *testing.T) {
	b := ScoreBadge(float64Ptr(42))
	if got := RenderBadge(b, false); got != "42%" {
		t.Errorf("RenderBadge() = %q", got)
	}
	if got := RenderBadge(b, true); !strings.Contains(got, "42%") {
		t.Errorf("RenderBadge(color) = %q", got)
	}
}
