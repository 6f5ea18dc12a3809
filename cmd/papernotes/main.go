package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Abraxas-365/papernotes/config"
	"github.com/Abraxas-365/papernotes/ingest"
	"github.com/Abraxas-365/papernotes/paper"
	"github.com/Abraxas-365/papernotes/server"
)

const usage = `usage: papernotes [-config file.yaml] <command> [flags]

commands:
  ingest   -url <pdf url> -name <name> [-delete-pages 6,7] [-dry-run] [-json]
  get      -url <pdf url> [-json]
  qa       -question <q> -answer <a> -context <c> [-followup "a;b"]
  list     [-qa] [-limit 20] [-json]
  serve    [-addr :8080]
  init-db  [-force]
`

func main() {
	configPath := flag.String("config", "", "optional YAML file overlaid on the environment")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, flag.Arg(0), flag.Args()[1:], logger); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, cmd string, args []string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	switch cmd {
	case "ingest":
		return runIngest(ctx, cfg, args, logger)
	case "get":
		return runGet(ctx, cfg, args, logger)
	case "qa":
		return runQA(ctx, cfg, args, logger)
	case "list":
		return runList(ctx, cfg, args, logger)
	case "serve":
		return runServe(ctx, cfg, args, logger)
	case "init-db":
		return runInitDB(ctx, cfg, args, logger)
	}

	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func setup(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return build(ctx, cfg, logger)
}

func runIngest(ctx context.Context, cfg config.Config, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	url := fs.String("url", "", "paper URL ending in .pdf")
	name := fs.String("name", "", "display name")
	pages := fs.String("delete-pages", "", "comma separated 1-indexed pages to remove, applied in order")
	dryRun := fs.Bool("dry-run", cfg.DryRun, "keep results in memory instead of Postgres")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	fs.Parse(args)

	toDelete, err := parsePages(*pages)
	if err != nil {
		return err
	}
	req := paper.IngestRequest{PaperURL: *url, Name: *name, PagesToDelete: toDelete}
	if err := req.Validate(); err != nil {
		return err
	}

	cfg.DryRun = *dryRun
	a, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.DryRun {
		if err := a.InitDB(ctx, false); err != nil {
			return err
		}
	}

	res, err := a.pipeline.Ingest(ctx, req)
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(res)
	}
	fmt.Println(renderResult(res))
	return nil
}

func runGet(ctx context.Context, cfg config.Config, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	url := fs.String("url", "", "paper URL")
	asJSON := fs.Bool("json", false, "print the record as JSON")
	fs.Parse(args)

	a, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	rec := a.pipeline.GetPaper(ctx, *url)
	if rec == nil {
		return fmt.Errorf("no paper stored for %s", *url)
	}

	if *asJSON {
		return printJSON(rec)
	}
	fmt.Println(renderRecord(rec))
	return nil
}

func runQA(ctx context.Context, cfg config.Config, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("qa", flag.ExitOnError)
	question := fs.String("question", "", "question")
	answer := fs.String("answer", "", "answer")
	qctx := fs.String("context", "", "supporting context")
	followup := fs.String("followup", "", "semicolon separated follow-up questions")
	fs.Parse(args)

	if *question == "" {
		return paper.NewError(paper.KindValidation, "qa", "question is required", nil)
	}

	a, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var followups []string
	for _, f := range strings.Split(*followup, ";") {
		if f = strings.TrimSpace(f); f != "" {
			followups = append(followups, f)
		}
	}

	return a.pipeline.SaveQA(ctx, paper.QA{
		Question:          *question,
		Answer:            *answer,
		Context:           *qctx,
		FollowupQuestions: followups,
	})
}

func runList(ctx context.Context, cfg config.Config, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	questions := fs.Bool("qa", false, "list stored questions instead of papers")
	limit := fs.Int("limit", ingest.DefaultListLimit, "maximum number of rows")
	asJSON := fs.Bool("json", false, "print the rows as JSON")
	fs.Parse(args)

	a, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if *questions {
		qas, err := a.pipeline.QuestionAnswers(ctx, *limit)
		if err != nil {
			return err
		}
		if *asJSON {
			return printJSON(qas)
		}
		fmt.Println(renderQAList(qas))
		return nil
	}

	recs, err := a.pipeline.ListPapers(ctx, *limit)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(recs)
	}
	fmt.Println(renderPaperList(recs))
	return nil
}

func runServe(ctx context.Context, cfg config.Config, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Addr, "listen address")
	fs.Parse(args)

	a, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.DryRun {
		if err := a.InitDB(ctx, false); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.New(a.pipeline, a.vectors, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("papernotes listening", "addr", *addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runInitDB(ctx context.Context, cfg config.Config, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("init-db", flag.ExitOnError)
	force := fs.Bool("force", false, "drop and recreate the embeddings collection")
	fs.Parse(args)

	a, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.InitDB(ctx, *force); err != nil {
		return paper.NewError(paper.KindPersistence, "init-db", "failed to create schema", err)
	}
	logger.Info("schema ready", "embeddings", cfg.EmbeddingsTable)
	return nil
}

// parsePages reads "6,7" into [6 7]; order is kept
func parsePages(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, paper.NewError(paper.KindValidation, "ingest", fmt.Sprintf("invalid page %q", part), err)
		}
		out = append(out, n)
	}
	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
