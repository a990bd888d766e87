package formatter

import (
	"testing"
	"time"

	"github.com/codestack/cli/pkg/api"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is longer than ten", 10, "this is lo..."},
		{"héllo wörld", 5, "héllo..."},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	want := ts.Local().Format("2006-01-02 15:04")

	if got := FormatTime(ts.Format(time.RFC3339)); got != want {
		t.Errorf("FormatTime = %q, want %q", got, want)
	}
	if got := FormatTime("yesterday"); got != "yesterday" {
		t.Errorf("unparseable timestamps pass through, got %q", got)
	}
	if got := FormatTime(""); got != "-" {
		t.Errorf("empty timestamp = %q", got)
	}
}

func TestPostRow(t *testing.T) {
	row := PostRow(api.Post{
		ID:           "p1",
		Title:        "Go channels",
		Tag:          "golang",
		AuthorName:   "Dev",
		UpVote:       3,
		DownVote:     1,
		CommentCount: 2,
	})

	if len(row) != len(PostHeaders) {
		t.Fatalf("row has %d cells, headers %d", len(row), len(PostHeaders))
	}
	if row[4] != "+3/-1" {
		t.Errorf("votes cell = %q", row[4])
	}
	if row[5] != "2" {
		t.Errorf("comments cell = %q", row[5])
	}
}

func TestUserRowDefaultsBadge(t *testing.T) {
	row := UserRow(api.User{ID: "u1", Name: "Ann", Email: "ann@codestack.io"})
	if row[3] != "unknown" {
		t.Errorf("role cell = %q", row[3])
	}
	if row[4] != api.BadgeBronze {
		t.Errorf("badge cell = %q", row[4])
	}
}

func TestCommentRowFeedback(t *testing.T) {
	if got := CommentRow(api.Comment{Text: "hi"})[3]; got != "-" {
		t.Errorf("unreported comment feedback = %q", got)
	}
	if got := CommentRow(api.Comment{Text: "hi", Feedback: "Spam or Irrelevant"})[3]; got != "Spam or Irrelevant" {
		t.Errorf("feedback = %q", got)
	}
}

func TestPager(t *testing.T) {
	if got := Pager(2, 5); got != "Page 2 of 5" {
		t.Errorf("Pager = %q", got)
	}
	if got := Pager(1, 0); got != "No pages" {
		t.Errorf("Pager(empty) = %q", got)
	}
}
