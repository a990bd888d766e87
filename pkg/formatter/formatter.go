package formatter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/codestack/cli/pkg/api"
	"github.com/fatih/color"
)

var (
	Bold    = color.New(color.Bold)
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Warning = color.New(color.FgYellow)
)

// DescriptionPreview is how much of a post body list views show.
const DescriptionPreview = 100

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// FormatTime renders a backend timestamp in local time. Unparseable
// values are returned unchanged.
func FormatTime(ts string) string {
	if ts == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Votes renders up and down counters.
func Votes(up, down int) string {
	return fmt.Sprintf("+%d/-%d", up, down)
}

// Badge colors a badge name.
func Badge(badge string) string {
	if badge == api.BadgeGold {
		return Warning.Sprint(badge)
	}
	return badge
}

// Role colors a role name. An unresolved role prints as "unknown".
func Role(role string) string {
	switch role {
	case api.RoleAdmin:
		return Error.Sprint(role)
	case "":
		return "unknown"
	}
	return role
}

// PostHeaders are the columns of PostRow.
var PostHeaders = []string{"ID", "Title", "Tag", "Author", "Votes", "Comments", "Posted"}

// PostRow renders a post as a table row.
func PostRow(p api.Post) []string {
	return []string{
		p.ID,
		Truncate(p.Title, 40),
		p.Tag,
		p.AuthorName,
		Votes(p.UpVote, p.DownVote),
		strconv.Itoa(p.CommentCount),
		FormatTime(p.CreatedAt),
	}
}

// PostRows renders posts as table rows.
func PostRows(posts []api.Post) [][]string {
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, PostRow(p))
	}
	return rows
}

// UserHeaders are the columns of UserRow.
var UserHeaders = []string{"ID", "Name", "Email", "Role", "Badge"}

// UserRow renders a user as a table row.
func UserRow(u api.User) []string {
	return []string{u.ID, u.Name, u.Email, Role(u.Role), Badge(u.BadgeOrDefault())}
}

// CommentHeaders are the columns of CommentRow.
var CommentHeaders = []string{"ID", "Author", "Comment", "Feedback", "Posted"}

// CommentRow renders a comment as a table row.
func CommentRow(c api.Comment) []string {
	feedback := c.Feedback
	if feedback == "" {
		feedback = "-"
	}
	return []string{c.ID, c.Email, Truncate(c.Text, 60), feedback, FormatTime(c.CreatedAt)}
}

// AnnouncementHeaders are the columns of AnnouncementRow.
var AnnouncementHeaders = []string{"Title", "By", "Posted"}

// AnnouncementRow renders an announcement as a table row.
func AnnouncementRow(a api.Announcement) []string {
	return []string{a.Title, a.AuthorName, FormatTime(a.CreatedAt)}
}

// Pager renders "Page 2 of 5".
func Pager(page, total int) string {
	if total == 0 {
		return "No pages"
	}
	return fmt.Sprintf("Page %d of %d", page, total)
}
