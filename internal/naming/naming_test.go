package naming

import (
	"testing"
	"time"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"existing.mov", "existing"},
		{"bad (video).mov", "bad-video-"},
		{"my clip v2.mp4", "my-clip-v2"},
		{"MyClip.webm", "MyClip"},
		{"a__b--c.mov", "a-b-c"},
		{"/some/dir/session 01.mp4", "session-01"},
	}
	for _, c := range cases {
		if got := Slug(c.in); got != c.want {
			t.Errorf("Slug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFeedbackPrefix(t *testing.T) {
	if got := FeedbackPrefix("existing.mov"); got != "existing-feedback-" {
		t.Errorf("expected existing-feedback-, got %q", got)
	}
	if got := FeedbackPrefix("bad (video).mov"); got != "bad-video--feedback-" {
		t.Errorf("expected bad-video--feedback-, got %q", got)
	}
}

func TestReportFileName(t *testing.T) {
	ts := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	got := ReportFileName("existing.mov", ts)
	want := "existing-feedback-20260214-120000.md"
	if got != want {
		t.Errorf("ReportFileName = %q, want %q", got, want)
	}
}

func TestFramesDirName(t *testing.T) {
	if got := FramesDirName("my clip.mp4"); got != "my-clip-frames" {
		t.Errorf("FramesDirName = %q, want my-clip-frames", got)
	}
}
