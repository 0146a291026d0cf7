package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/briangreenhill/newsgpt/actions"
	"github.com/briangreenhill/newsgpt/internal/config"
	"github.com/briangreenhill/newsgpt/internal/format"
	"github.com/briangreenhill/newsgpt/internal/setup"
	"github.com/briangreenhill/newsgpt/newsapi"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, format.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

type cliFlags struct {
	plain   bool
	verbose bool
}

// app is the wired news stack behind every command.
type app struct {
	stack    *setup.Stack
	registry *actions.Registry
}

func openApp(ctx context.Context, flags *cliFlags, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// keep the terminal quiet unless asked
	if flags.verbose {
		cfg.LogLevel = "debug"
	} else if _, set := os.LookupEnv("LOG_LEVEL"); !set {
		cfg.LogLevel = "warn"
	}

	stack, err := setup.Build(ctx, cfg, logOut)
	if err != nil {
		return nil, err
	}
	return &app{
		stack:    stack,
		registry: actions.NewNewsRegistry(stack.Service, nil, stack.Logger),
	}, nil
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           "newsgpt",
		Short:         "Search news and top headlines from the terminal",
		Long:          "newsgpt queries a news provider for article searches and top headlines, caching responses between runs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVar(&flags.plain, "plain", false, "print without colors")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")

	render := func(articles []newsapi.Article) string {
		if flags.plain {
			return format.NewsResponse(articles)
		}
		return format.Styled(articles)
	}
	notice := func(msg string) string {
		if flags.plain {
			return msg
		}
		return format.NoticeStyle.Render(msg)
	}

	withApp := func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags, errOut)
			if err != nil {
				return err
			}
			defer a.stack.Close()
			return run(cmd, a, args)
		}
	}

	var searchOpts newsapi.QueryParams
	searchCmd := &cobra.Command{
		Use:   "search <terms...>",
		Short: "Search articles, newest first",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			p := searchOpts
			p.Query = strings.Join(args, " ")
			articles, err := a.stack.Service.SearchNews(cmd.Context(), p)
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				fmt.Fprintln(out, notice("No news articles found for your query."))
				return nil
			}
			fmt.Fprint(out, render(articles))
			return nil
		}),
	}
	searchCmd.Flags().StringVar(&searchOpts.Language, "language", "", "two letter language code (default en)")
	searchCmd.Flags().IntVar(&searchOpts.PageSize, "page-size", 0, "number of articles (default 5)")

	var headlineOpts newsapi.QueryParams
	headlinesCmd := &cobra.Command{
		Use:   "headlines",
		Short: "Show top headlines for a country",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			articles, err := a.stack.Service.TopHeadlines(cmd.Context(), headlineOpts)
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				fmt.Fprintln(out, notice("No headlines found at the moment."))
				return nil
			}
			fmt.Fprint(out, render(articles))
			return nil
		}),
	}
	headlinesCmd.Flags().StringVar(&headlineOpts.Country, "country", "", "two letter country code (default us)")
	headlinesCmd.Flags().StringVar(&headlineOpts.Category, "category", "", "category such as business or science")
	headlinesCmd.Flags().IntVar(&headlineOpts.PageSize, "page-size", 0, "number of articles (default 5)")

	askCmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: "Ask in plain words, e.g. \"top news in the UK\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			message := strings.Join(args, " ")
			action, ok := a.registry.Route(message)
			if !ok {
				return fmt.Errorf("no action available for %q", message)
			}
			reply, err := action.Handle(cmd.Context(), message)
			if len(reply.Articles) > 0 {
				fmt.Fprint(out, render(reply.Articles))
			} else {
				fmt.Fprintln(out, notice(reply.Text))
			}
			return err
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop every cached provider response",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			a.stack.Service.ClearCache(cmd.Context())
			fmt.Fprintln(out, notice("Cache cleared."))
			return nil
		}),
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "newsgpt %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}

	root.AddCommand(searchCmd, headlinesCmd, askCmd, clearCmd, versionCmd)
	return root
}
