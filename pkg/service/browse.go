package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/codestack/cli/pkg/listview"
	"github.com/codestack/cli/pkg/output"
	"golang.org/x/term"
)

// ListOptions is the initial state of a list view.
type ListOptions struct {
	Page   int
	Sort   listview.SortMode
	Tag    string
	Search string
}

// Request is one navigation to a view.
type Request struct {
	Path        string
	Params      map[string]string
	List        ListOptions
	Interactive bool
}

// Param returns a route parameter.
func (r Request) Param(name string) string {
	return r.Params[name]
}

// ScreenAnchor brings the top of the list into view by clearing the
// terminal. It does nothing when output is not a terminal.
type ScreenAnchor struct {
	W       io.Writer
	Enabled bool
}

// NewScreenAnchor returns an anchor for p, enabled only for text output
// on a terminal.
func NewScreenAnchor(p *output.Printer) *ScreenAnchor {
	return &ScreenAnchor{
		W:       p.W,
		Enabled: p.Format == output.FormatText && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// ScrollIntoView implements listview.Anchor.
func (a *ScreenAnchor) ScrollIntoView() {
	if a == nil || !a.Enabled {
		return
	}
	fmt.Fprint(a.W, "\033[H\033[2J")
}

// action is an extra browse command taking the rest of the line.
type action struct {
	help string
	run  func(ctx context.Context, arg string) error
}

// browser is the interactive loop around one list controller.
type browser[T any] struct {
	v       *Views
	c       *listview.Controller[T]
	render  func() error
	sorting bool
	tags    bool
	search  bool
	actions map[string]action
	changes chan struct{}
	// interactive is set while run is reading commands.
	interactive bool
}

func newBrowser[T any](v *Views, render func() error) *browser[T] {
	return &browser[T]{v: v, render: render, actions: map[string]action{}, changes: make(chan struct{}, 1)}
}

// onChange is given to the controller so the loop can wait for a
// debounced fetch.
func (b *browser[T]) onChange() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// mount creates and loads the controller for cfg with opts applied.
func (b *browser[T]) mount(ctx context.Context, cfg listview.Config[T], opts ListOptions) error {
	cfg.OnChange = b.onChange
	if opts.Sort != "" {
		cfg.Sort = opts.Sort
	}
	b.c = listview.New(cfg)
	b.c.SetAnchor(NewScreenAnchor(b.v.Out))

	if opts.Tag != "" {
		if err := b.c.SetTag(ctx, opts.Tag); err != nil {
			return err
		}
	} else if opts.Search != "" {
		b.c.SetSearch(ctx, opts.Search)
		b.c.FlushSearch()
	} else if err := b.c.Load(ctx); err != nil {
		return err
	}

	if opts.Page > 1 {
		if ok, err := b.c.GoTo(ctx, opts.Page); !ok {
			b.v.Notify.Notify(output.LevelWarning, fmt.Sprintf("Page %d is out of range", opts.Page))
		} else if err != nil {
			return err
		}
	}
	return nil
}

func (b *browser[T]) help() string {
	parts := []string{"n next", "p prev", "g N page"}
	if b.sorting {
		parts = append(parts, "s sort")
	}
	if b.tags {
		parts = append(parts, "t TAG filter")
	}
	if b.search {
		parts = append(parts, "/ TEXT search")
	}
	names := make([]string, 0, len(b.actions))
	for name := range b.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, name+" "+b.actions[name].help)
	}
	parts = append(parts, "r retry", "q quit")
	return strings.Join(parts, ", ")
}

// show renders the list, or its error with the retry hint.
func (b *browser[T]) show() error {
	if err := b.c.Err(); err != nil {
		b.v.Out.Error("%s", err.Error())
		if b.interactive {
			b.v.Out.Line("Type r to retry.")
		}
		return nil
	}
	return b.render()
}

// run reads commands until q, EOF or ctx ends.
func (b *browser[T]) run(ctx context.Context) error {
	defer b.c.Close()
	b.interactive = true

	if err := b.show(); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		b.v.Out.Line("[%s]", b.help())
		line, err := b.v.Prompt.String("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		quit, err := b.exec(ctx, cmd, arg)
		if quit {
			return nil
		}
		if err != nil {
			// The list shows the error; the loop keeps going.
			continue
		}
	}
}

// exec runs one command and re-renders.
func (b *browser[T]) exec(ctx context.Context, cmd, arg string) (quit bool, err error) {
	switch cmd {
	case "":
		return false, nil
	case "q", "quit":
		return true, nil
	case "n":
		if ok, _ := b.c.Next(ctx); !ok {
			b.v.Out.Line("Already on the last page.")
			return false, nil
		}
	case "p":
		if ok, _ := b.c.Prev(ctx); !ok {
			b.v.Out.Line("Already on the first page.")
			return false, nil
		}
	case "g":
		n, convErr := strconv.Atoi(arg)
		if convErr != nil {
			b.v.Out.Line("Usage: g N")
			return false, nil
		}
		if ok, _ := b.c.GoTo(ctx, n); !ok {
			b.v.Out.Line("No page %d.", n)
			return false, nil
		}
	case "s":
		if !b.sorting {
			return false, b.unknown(cmd)
		}
		_ = b.c.ToggleSort(ctx)
	case "t":
		if !b.tags {
			return false, b.unknown(cmd)
		}
		_ = b.c.SetTag(ctx, arg)
	case "/":
		if !b.search {
			return false, b.unknown(cmd)
		}
		select {
		case <-b.changes:
		default:
		}
		b.c.SetSearch(ctx, arg)
		b.v.Out.Line("Searching...")
		select {
		case <-b.changes:
		case <-ctx.Done():
			return true, nil
		}
	case "r":
		_ = b.c.Retry(ctx)
	default:
		a, ok := b.actions[cmd]
		if !ok {
			return false, b.unknown(cmd)
		}
		if err := a.run(ctx, arg); err != nil {
			return false, err
		}
		// Invalidation has refreshed the subscribed page.
		_ = b.c.Load(ctx)
	}
	return false, b.show()
}

func (b *browser[T]) unknown(cmd string) error {
	b.v.Out.Line("Unknown command %q.", cmd)
	return nil
}
