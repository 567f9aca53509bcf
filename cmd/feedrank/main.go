package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/feedrank/internal/config"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/mode"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/request"
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/result"
	"github.com/kailas-cloud/feedrank/internal/metrics"
	chiTransport "github.com/kailas-cloud/feedrank/internal/transport/chi"
	"github.com/kailas-cloud/feedrank/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var env string

	rootCmd := &cobra.Command{
		Use:           "feedrank",
		Short:         "Embedding refresh and post recommendation engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "Config environment (local, dev, prod)")

	withApp := func(run func(ctx context.Context, a *app, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, env)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(ctx, a, cmd.OutOrStdout())
		}
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  withApp(serve),
	}

	var postID, userID string
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Recompute vectors and engagement scores (all records by default)",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer) error {
			return runRefresh(ctx, a, out, postID, userID)
		}),
	}
	refreshCmd.Flags().StringVar(&postID, "post", "", "Refresh a single post")
	refreshCmd.Flags().StringVar(&userID, "user", "", "Refresh a single user")
	refreshCmd.MarkFlagsMutuallyExclusive("post", "user")

	var (
		vectorFlag string
		forUser    string
		text       string
		topN       int
		modeFlag   string
	)
	recommendCmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank posts against a vector, a user or free text",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer) error {
			return runRecommend(ctx, a, out, recommendArgs{
				vector: vectorFlag, user: forUser, text: text, topN: topN, mode: modeFlag,
			})
		}),
	}
	recommendCmd.Flags().StringVar(&vectorFlag, "vector", "", "Comma-separated query vector")
	recommendCmd.Flags().StringVar(&forUser, "user", "", "Use the stored vector of this user")
	recommendCmd.Flags().StringVar(&text, "text", "", "Embed this text as the query")
	recommendCmd.Flags().IntVar(&topN, "top-n", request.DefaultTopN, "Number of results")
	recommendCmd.Flags().StringVar(&modeFlag, "mode", string(mode.Similarity), "Ranking mode: similarity, engagement, blend")
	recommendCmd.MarkFlagsMutuallyExclusive("vector", "user", "text")
	recommendCmd.MarkFlagsOneRequired("vector", "user", "text")

	var postsPath, usersPath string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Load posts and users from newline-delimited JSON files",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, out io.Writer) error {
			return runImport(ctx, a, out, postsPath, usersPath)
		}),
	}
	importCmd.Flags().StringVar(&postsPath, "posts", "", "Posts JSONL file")
	importCmd.Flags().StringVar(&usersPath, "users", "", "Users JSONL file")
	importCmd.MarkFlagsOneRequired("posts", "users")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	rootCmd.AddCommand(serveCmd, refreshCmd, recommendCmd, importCmd, versionCmd)
	return rootCmd
}

func serve(ctx context.Context, a *app, _ io.Writer) error {
	metrics.RegisterHTTPMetrics()

	server := chiTransport.NewServer(a.recommend, a.refresh, a.health, a.logger)
	cfg := a.cfg.HTTP

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, a.logger),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}

func runRefresh(ctx context.Context, a *app, out io.Writer, postID, userID string) error {
	switch {
	case postID != "":
		if err := a.refresh.RefreshPost(ctx, postID); err != nil {
			return fmt.Errorf("refresh post %s: %w", postID, err)
		}
		return writeJSON(out, map[string]string{"status": "ok", "post": postID})
	case userID != "":
		if err := a.refresh.RefreshUser(ctx, userID); err != nil {
			return fmt.Errorf("refresh user %s: %w", userID, err)
		}
		return writeJSON(out, map[string]string{"status": "ok", "user": userID})
	}

	summary, err := a.refresh.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh all: %w", err)
	}
	return writeJSON(out, chiTransport.RefreshResponse{
		Summary:    summary,
		DurationMS: summary.Duration.Milliseconds(),
	})
}

type recommendArgs struct {
	vector string
	user   string
	text   string
	topN   int
	mode   string
}

func runRecommend(ctx context.Context, a *app, out io.Writer, args recommendArgs) error {
	m, err := mode.Parse(args.mode)
	if err != nil {
		return err //nolint:wrapcheck // already describes the flag value
	}

	var res []result.Result
	switch {
	case args.user != "":
		res, err = a.recommend.RecommendForUser(ctx, args.user, args.topN, m)
	case args.text != "":
		res, err = a.recommend.RecommendText(ctx, args.text, args.topN, m)
	default:
		vec, perr := parseVector(args.vector)
		if perr != nil {
			return perr
		}
		req, rerr := request.New(vec, a.recommend.Dimensions(), args.topN, m)
		if rerr != nil {
			return rerr //nolint:wrapcheck // domain error carries the reason
		}
		res, err = a.recommend.Recommend(ctx, &req)
	}
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return writeJSON(out, chiTransport.ItemsFromResults(res))
}

func runImport(ctx context.Context, a *app, out io.Writer, postsPath, usersPath string) error {
	counts := map[string]int{}
	if postsPath != "" {
		n, err := importFile(ctx, postsPath, a.ingest.ImportPosts)
		if err != nil {
			return fmt.Errorf("import posts: %w", err)
		}
		counts["posts"] = n
	}
	if usersPath != "" {
		n, err := importFile(ctx, usersPath, a.ingest.ImportUsers)
		if err != nil {
			return fmt.Errorf("import users: %w", err)
		}
		counts["users"] = n
	}
	return writeJSON(out, counts)
}

func importFile(
	ctx context.Context, path string, load func(context.Context, io.Reader) (int, error),
) (int, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return load(ctx, f)
}

// parseVector parses "0.1,0.2,0.3".
func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	vec := make([]float32, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("vector component %d %q: %w", i, p, err)
		}
		vec = append(vec, float32(v))
	}
	return vec, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
