package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"auto_x_quote_publisher/composer"
	"auto_x_quote_publisher/generator"
	"auto_x_quote_publisher/server"
	"auto_x_quote_publisher/workflow"
)

const jobTimeout = 3 * time.Minute

func newComposeCmd() *cobra.Command {
	var (
		post    composer.Post
		budget  int
		caption string
		url     string
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose post text from fragments without calling the model",
		Long: `Lays out quote, attribution, explanation, trivia and hashtags within the
weighted budget (ASCII counts 1, everything else 2) and prints the result.
With --caption the single caption + URL + hashtags layout is used instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			post.Hashtags = generator.NormalizeHashtags(post.Hashtags)
			var res composer.Result
			if caption != "" || url != "" {
				res = composer.ComposeCaption(caption, url, strings.Join(post.Hashtags, " "), budget)
			} else {
				res = composer.New(budget).Compose(post)
			}
			if !res.Fits {
				res.Text = composer.ClipTail(res.Text, budget)
				res.Weight = composer.WeightedLength(res.Text)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			stage := res.Stage
			if stage == "" {
				stage = "none"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "weight %d/%d, stage %s\n", res.Weight, budget, stage)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&post.Quote, "quote", "", "quote text")
	f.StringVar(&post.FigureName, "figure", "", "who said it")
	f.StringVar(&post.Source, "source", "", "work or occasion the quote comes from")
	f.StringVar(&post.ShortExplain, "explain", "", "short explanation")
	f.StringVar(&post.Trivia, "trivia", "", "trivia line")
	f.StringSliceVar(&post.Hashtags, "hashtags", nil, "hashtags, comma separated")
	f.IntVar(&budget, "budget", composer.DefaultBudget, "weighted length budget")
	f.StringVar(&caption, "caption", "", "caption text (simple layout)")
	f.StringVar(&url, "url", "", "link appended after the caption (simple layout)")
	return cmd
}

func newDraftCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Generate content and store it as a draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var scheduledFor *time.Time
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				scheduledFor = &t
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
			defer cancel()
			draft, err := a.flow.CreateDraft(ctx, scheduledFor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "draft %d (weight %d)\n", draft.ID, composer.WeightedLength(draft.PostText))
			fmt.Fprintln(cmd.OutOrStdout(), draft.PostText)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "scheduled time (RFC3339)")
	return cmd
}

func newPostCmd() *cobra.Command {
	var fresh bool
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish the latest draft to X",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
			defer cancel()
			run := a.flow.PostLatestDraft
			if fresh {
				run = a.flow.CreateAndPost
			}
			posted, err := run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), posted.TweetID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fresh, "new", false, "generate a new draft first")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the posting schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := server.New(a.agent, a.flow, server.Options{
				Theme:      generator.Theme{Theme: a.cfg.Theme, Subtheme: a.cfg.Subtheme},
				Composer:   &composer.Composer{Budget: a.cfg.MaxTweetLength, Limits: *a.cfg.Limits},
				CronSecret: a.cfg.CronSecret,
			}, a.logger.Named("server"))
			if err != nil {
				return err
			}
			listen := a.cfg.ServerAddr
			if addr != "" {
				listen = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.cfg.Schedule != "" {
				sched, err := startSchedule(ctx, a.cfg.Schedule, a.flow, a.logger.Named("schedule"))
				if err != nil {
					return err
				}
				defer func() { <-sched.Stop().Done() }()
			}
			return listenAndServe(ctx, listen, srv.Routes(), a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server_addr)")
	return cmd
}

// startSchedule runs CreateAndPost on every tick of the cron expression expr.
func startSchedule(ctx context.Context, expr string, flow *workflow.Workflow, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	_, err := c.AddFunc(expr, func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		posted, err := flow.CreateAndPost(jobCtx)
		if err != nil {
			logger.Error("Scheduled post failed", zap.Error(err))
			return
		}
		logger.Info("Scheduled post published", zap.Int64("id", posted.ID), zap.String("tweet_id", posted.TweetID))
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", expr, err)
	}
	c.Start()
	logger.Info("Schedule started", zap.String("expr", expr))
	return c, nil
}

func listenAndServe(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	hs := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting web server", zap.String("addr", addr))
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Web server stopped")
	return nil
}
