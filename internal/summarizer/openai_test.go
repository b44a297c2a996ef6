package summarizer

import (
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(Input{Text: "  Ran 5k.  ", Period: "weekly"})
	want := "Period:\nweekly\nEntries:\nRan 5k."

	if got != want {
		t.Fatalf("unexpected prompt: got %q want %q", got, want)
	}

	if got = BuildPrompt(Input{Text: "Ran 5k."}); got != "Entries:\nRan 5k." {
		t.Fatalf("unexpected prompt without period: %q", got)
	}

	if got = BuildPrompt(Input{Text: "   ", Period: "daily"}); got != "" {
		t.Fatalf("expected empty prompt for blank text, got %q", got)
	}
}

func TestNextMaxOutputTokens(t *testing.T) {
	tests := []struct {
		current int64
		want    int64
	}{
		{baseMaxOutputTokens, 1024},
		{1024, limitMaxOutputTokens},
		{1500, limitMaxOutputTokens},
	}

	for _, test := range tests {
		if got := nextMaxOutputTokens(test.current); got != test.want {
			t.Fatalf("nextMaxOutputTokens(%d) = %d, want %d", test.current, got, test.want)
		}
	}
}

func TestNewOpenAISummarizerRequiresKey(t *testing.T) {
	if _, err := NewOpenAISummarizer("  "); err == nil {
		t.Fatalf("expected error for empty API key")
	}
}
