package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"booktracker/internal/book"
	"booktracker/internal/client"
	"booktracker/internal/tracker"
)

const usage = `usage: booktracker [-server URL | -data FILE] [-prefs FILE] <command> [args]

commands:
  list   [-status S] [-search Q] [-sort M] [-page N]
  add    -title T -author A [-status S] [-rating N]
  rate   <book> <0-5>
  status <book> <Reading|Read|Want to Read|DNF>
  edit   [-title T] [-author A] <book>
  delete <book>
  theme

<book> is an id, or "title|author" for local books without one.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.SetFlags(0)
		log.Fatalf("booktracker: %v", err)
	}
}

type app struct {
	src       tracker.Source
	session   *tracker.Session
	prefs     tracker.Prefs
	prefsPath string
	out       io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("booktracker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	server := fs.String("server", "", "base URL of a booktracker API server")
	data := fs.String("data", "", "local library file (default: user config dir)")
	prefsPath := fs.String("prefs", "", "preferences file (default: user config dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}
	if *server != "" && *data != "" {
		return errors.New("-server and -data are mutually exclusive")
	}

	if *prefsPath == "" {
		*prefsPath = defaultPath("prefs.ini")
	}
	prefs, err := tracker.LoadPrefs(*prefsPath)
	if err != nil {
		return err
	}

	src, err := openSource(*server, *data)
	if err != nil {
		return err
	}

	a := &app{
		src:       src,
		session:   tracker.NewSession(src, prefs.Query()),
		prefs:     prefs,
		prefsPath: *prefsPath,
		out:       stdout,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "list":
		err = a.list(ctx, rest)
	case "add":
		err = a.add(ctx, rest)
	case "rate":
		err = a.rate(ctx, rest)
	case "status":
		err = a.status(ctx, rest)
	case "edit":
		err = a.edit(ctx, rest)
	case "delete":
		err = a.delete(ctx, rest)
	case "theme":
		a.prefs.ToggleTheme()
		fmt.Fprintf(stdout, "theme: %s\n", a.prefs.Theme)
		return tracker.SavePrefs(a.prefsPath, a.prefs)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		if msg := a.session.View().Error; msg != "" {
			return errors.New(msg)
		}
		return err
	}

	render(a.out, a.session.View(), a.prefs.Theme)
	return tracker.SavePrefs(a.prefsPath, a.session.Prefs(a.prefs.Theme))
}

func openSource(server, data string) (tracker.Source, error) {
	if server != "" {
		return client.Source{Client: client.New(server)}, nil
	}
	if data == "" {
		data = defaultPath("books.json")
	}
	repo, err := book.OpenMemoryRepo(data)
	if err != nil {
		return nil, err
	}
	return book.NewService(repo), nil
}

func defaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "booktracker", name)
}

// parseIdentity reads a book argument: "title|author" or an id.
func parseIdentity(arg string) (book.Identity, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return book.Identity{}, errors.New("missing book")
	}
	if title, author, ok := strings.Cut(arg, "|"); ok {
		return book.ByTitleAuthor(strings.TrimSpace(title), strings.TrimSpace(author)), nil
	}
	return book.ByID(arg), nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	status := fs.String("status", "", "status filter or All")
	search := fs.String("search", "", "title or author substring")
	sort := fs.String("sort", "", "title-asc, title-desc, author-asc, author-desc, rating-asc, rating-desc")
	page := fs.Int("page", 0, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Query changes go back to page 1, so an explicit page goes last.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "status":
			a.session.SetFilter(book.Status(*status))
		case "search":
			a.session.SetSearch(*search)
		case "sort":
			a.session.SetSort(book.SortMode(*sort))
		}
	})
	if *page != 0 {
		a.session.SetPage(*page)
	}
	return a.session.Refresh(ctx)
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "book title")
	author := fs.String("author", "", "book author")
	status := fs.String("status", string(book.StatusReading), "reading status")
	rating := fs.Int("rating", 0, "rating 0-5")
	if err := fs.Parse(args); err != nil {
		return err
	}

	created, err := a.session.Add(ctx, book.Draft{
		Title:  *title,
		Author: *author,
		Status: book.Status(*status),
		Rating: *rating,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added %q (%s)\n", created.Title, created.ID)
	return nil
}

func (a *app) rate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("rate needs <book> <rating>")
	}
	id, err := parseIdentity(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("rating %q is not a number", args[1])
	}
	return a.session.Rate(ctx, id, n)
}

func (a *app) status(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("status needs <book> <status>")
	}
	id, err := parseIdentity(args[0])
	if err != nil {
		return err
	}
	status := book.Status(strings.Join(args[1:], " "))
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	return a.session.SetStatus(ctx, id, status)
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	title := fs.String("title", "", "new title")
	author := fs.String("author", "", "new author")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("edit needs exactly one <book>")
	}
	id, err := parseIdentity(fs.Arg(0))
	if err != nil {
		return err
	}

	current, err := a.find(ctx, id)
	if err != nil {
		return err
	}
	a.session.BeginEdit(current)

	// Fields left out keep their stored value.
	newTitle, newAuthor := current.Title, current.Author
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			newTitle = *title
		case "author":
			newAuthor = *author
		}
	})
	if err := a.session.UpdateEdit(newTitle, newAuthor); err != nil {
		return err
	}
	return a.session.SaveEdit(ctx)
}

// find walks the whole library for the book id points at.
func (a *app) find(ctx context.Context, id book.Identity) (book.Book, error) {
	q := book.Query{Status: book.StatusAll, Sort: book.SortTitleAsc, Page: 1, PageSize: book.MaxPageSize}
	for {
		page, err := a.src.List(ctx, q)
		if err != nil {
			return book.Book{}, err
		}
		for _, b := range page.Items {
			if id.Matches(b) {
				return b, nil
			}
		}
		if !page.Meta.HasNext() {
			return book.Book{}, fmt.Errorf("%s: %w", id, book.ErrNotFound)
		}
		q.Page = page.Meta.Page + 1
	}
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("delete needs exactly one <book>")
	}
	id, err := parseIdentity(args[0])
	if err != nil {
		return err
	}
	return a.session.Delete(ctx, id)
}
