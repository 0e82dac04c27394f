package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"spark-client/pkg/models/comment"
	"spark-client/pkg/models/post"
)

const contentWidth = 60

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func mark(on bool, yes string) string {
	if on {
		return yes
	}
	return "-"
}

func ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t).Round(time.Minute)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}

func printPosts(w io.Writer, posts []post.Post) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tAUTHOR\tTOPIC\tLIKES\tLIKED\tSAVED\tCOMMENTS\tWHEN\tCONTENT")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t@%s\t%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Author.Username, p.Topic.Name, p.LikedCount,
			mark(p.Liked(), "yes"), mark(p.Saved(), "yes"),
			p.CommentCount, ago(p.CreatedAt), clip(p.Content, contentWidth))
	}
	tw.Flush()
}

func printComments(w io.Writer, comments []comment.Comment, depth int) {
	for _, c := range comments {
		fmt.Fprintf(w, "%s@%s: %s\n", strings.Repeat("  ", depth), c.User.Username, c.Content)
		printComments(w, c.Children, depth+1)
	}
}
