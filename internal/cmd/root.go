package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/codestack/cli/internal/app"
	"github.com/codestack/cli/internal/router"
	"github.com/codestack/cli/pkg/config"
	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/codestack/cli/pkg/guard"
	"github.com/codestack/cli/pkg/listview"
	"github.com/codestack/cli/pkg/logger"
	"github.com/codestack/cli/pkg/output"
	"github.com/codestack/cli/pkg/query"
	"github.com/codestack/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	configPath  string
	outputFmt   string
	interactive bool
)

var rootCmd = &cobra.Command{
	Use:   "codestack",
	Short: "CodeStack CLI - developer forum in your terminal",
	Long: `CodeStack CLI is a command-line client for the CodeStack developer
forum. Browse and search posts, comment and vote, manage your own posts
and membership, and moderate the forum as an administrator.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("initialize config: %w", err)
		}

		logger.Init(verbose)

		if !output.ValidateOutputFormat(outputFmt) {
			return clierrors.ValidationError("output", "must be text, json or table")
		}
		config.Set("output.format", outputFmt)
		return nil
	},
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, clierrors.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/codestack/cli/config.toml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "output", "text", "Output format: text, json, table")
	rootCmd.PersistentFlags().BoolVarP(&interactive, "interactive", "i", false, "Keep the page open and read commands")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(membershipCmd)
	rootCmd.AddCommand(versionCmd)
}

// withApp builds the client, restores the session and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a := app.FromConfig()
	defer func() {
		a.Close()
		if verbose {
			printCacheStats(cmd.ErrOrStderr(), a.Cache)
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

// printCacheStats writes the query cache counters of this run.
func printCacheStats(w io.Writer, c *query.Cache) {
	s, err := c.Stats()
	if err != nil {
		logger.Debug("Query cache stats unavailable", "error", err)
		return
	}
	fmt.Fprintf(w, "cache: %d hits, %d stale, %d misses, %d fetches (%d failed), %d invalidations\n",
		s.Hits, s.StaleHits, s.Misses, s.Fetches, s.FetchErrors, s.Invalidations)
}

// listFlags are the paging flags shared by list pages.
type listFlags struct {
	page   int
	sort   string
	tag    string
	search string
}

func (f *listFlags) register(cmd *cobra.Command, withTag, withSearch bool) {
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number")
	cmd.Flags().StringVar(&f.sort, "sort", string(listview.SortNewest), "Sort order: newest, popular")
	if withTag {
		cmd.Flags().StringVar(&f.tag, "tag", "", "Only posts with this tag")
	}
	if withSearch {
		cmd.Flags().StringVar(&f.search, "search", "", "Search text")
	}
}

func (f *listFlags) options() (service.ListOptions, error) {
	sort := listview.SortMode(f.sort)
	if sort != listview.SortNewest && sort != listview.SortPopular {
		return service.ListOptions{}, clierrors.ValidationError("sort", "must be newest or popular")
	}
	if f.page < 1 {
		return service.ListOptions{}, clierrors.ValidationError("page", "must be at least 1")
	}
	return service.ListOptions{Page: f.page, Sort: sort, Tag: f.tag, Search: f.search}, nil
}

// open navigates to path through the router.
func open(cmd *cobra.Command, path string, list service.ListOptions) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		err := a.Router.Navigate(ctx, service.Request{
			Path:        path,
			List:        list,
			Interactive: interactive,
		})
		if errors.Is(err, router.ErrTooManyRedirects) {
			logger.Error("Navigation loop", "path", path, "error", err)
		}
		return err
	})
}

// authorize fails unless the session meets req.
func authorize(ctx context.Context, a *app.App, req guard.Requirement) error {
	st, err := a.Router.Check(ctx, "", req)
	if err != nil {
		return err
	}
	if denied, ok := st.(guard.Denied); ok {
		if denied.Reason == guard.ReasonUnauthenticated {
			return clierrors.UnauthorizedError()
		}
		return clierrors.ForbiddenError()
	}
	return nil
}
