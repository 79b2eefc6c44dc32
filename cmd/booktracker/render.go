package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"booktracker/internal/book"
	"booktracker/internal/tracker"
)

const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[2m"
)

// render prints the current page as a table followed by the navigation
// window. The dark theme adds ANSI emphasis; light output is plain.
func render(w io.Writer, v tracker.View, theme tracker.Theme) {
	style := func(code, s string) string {
		if theme != tracker.ThemeDark {
			return s
		}
		return code + s + ansiReset
	}

	filter := string(v.Query.Status)
	if !v.Query.FiltersStatus() {
		filter = string(book.StatusAll)
	}
	header := fmt.Sprintf("filter: %s  sort: %s", filter, v.Query.Sort)
	if v.Query.Search != "" {
		header += fmt.Sprintf("  search: %q", v.Query.Search)
	}
	fmt.Fprintln(w, style(ansiDim, header))

	if len(v.Items) == 0 {
		fmt.Fprintln(w, "No books found.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tSTATUS\tRATING")
		for _, b := range v.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", displayID(b.ID), b.Title, b.Author, b.Status, stars(b))
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "%s  (page %d of %d, %d books)\n", v.Nav, v.Meta.Page, v.Meta.TotalPages, v.Meta.Total)
}

// stars draws the rating; unread books have no rating to show.
func stars(b book.Book) string {
	if b.Status == book.StatusWantToRead {
		return "-"
	}
	n := min(max(b.Rating, book.MinRating), book.MaxRating)
	return strings.Repeat("★", n) + strings.Repeat("☆", book.MaxRating-n)
}

func displayID(id string) string {
	if id == "" {
		return "-"
	}
	return id
}
