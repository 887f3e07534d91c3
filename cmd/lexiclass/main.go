package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/cognicore/lexiclass/pkg/lexiclass"
	"github.com/cognicore/lexiclass/pkg/lexiclass/config"
	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
	"github.com/cognicore/lexiclass/pkg/lexiclass/stoplist"
	"github.com/cognicore/lexiclass/pkg/lexiclass/store"
	"github.com/cognicore/lexiclass/pkg/lexiclass/store/badgerstore"
	"github.com/cognicore/lexiclass/pkg/lexiclass/store/file"
	"github.com/cognicore/lexiclass/pkg/lexiclass/store/sqlite"
)

const usage = `usage: lexiclass <command> [flags]

commands:
  train              add a labeled corpus and train
  classify           score text against a trained classifier
  suggest-stopwords  propose stopwords from the stored corpus`

func main() {
	_ = godotenv.Load()
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "train":
		return runTrain(ctx, cfg, logger, args, out)
	case "classify":
		return runClassify(ctx, cfg, logger, args, out)
	case "suggest-stopwords":
		return runSuggest(ctx, cfg, logger, args, out)
	default:
		return fmt.Errorf("%w: unknown command %q\n%s", internalerr.ErrInvalidInput, cmd, usage)
	}
}

// storeFlags registers the flags shared by every command, defaulting to the
// environment configuration.
func storeFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Storage backend: file, sqlite or badger")
	fs.StringVar(&cfg.StorePath, "store", cfg.StorePath, "File, database or directory holding the classifier")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "Classifier name inside a sqlite or badger store")
	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "YAML classifier options (optional)")
}

func openBackend(ctx context.Context, cfg Config, logger *slog.Logger) (store.Backend, error) {
	switch cfg.Backend {
	case "file":
		return file.Open(cfg.StorePath), nil
	case "sqlite":
		return sqlite.OpenSQLite(ctx, cfg.StorePath, cfg.Name)
	case "badger":
		return badgerstore.Open(cfg.StorePath, cfg.Name, logger)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", internalerr.ErrInvalidConfig, cfg.Backend)
	}
}

func classifierOptions(cfg Config, logger *slog.Logger) (lexiclass.Options, error) {
	opts := config.Default()
	if cfg.ConfigPath != "" {
		var err error
		if opts, err = config.LoadOptions(cfg.ConfigPath); err != nil {
			return lexiclass.Options{}, err
		}
	}
	comp, err := opts.Build()
	if err != nil {
		return lexiclass.Options{}, err
	}
	return lexiclass.Options{Tokenizer: comp.Tokenizer, Trainer: comp.Trainer, Logger: logger}, nil
}

// loadClassifier restores the stored classifier. With allowMissing, an empty
// store yields a fresh classifier instead of an error.
func loadClassifier(ctx context.Context, backend store.Backend, opts lexiclass.Options, allowMissing bool) (*lexiclass.Classifier, error) {
	c, err := lexiclass.LoadFrom(ctx, backend, opts).Wait(ctx)
	if err == nil {
		return c, nil
	}
	if allowMissing && (errors.Is(err, internalerr.ErrNotFound) || errors.Is(err, os.ErrNotExist)) {
		return lexiclass.New(opts), nil
	}
	return nil, err
}

func runTrain(ctx context.Context, cfg Config, logger *slog.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	storeFlags(fs, &cfg)
	corpus := fs.String("corpus", "", "Labeled corpus, YAML or label<TAB>text lines (required)")
	stripHTML := fs.Bool("html", false, "Treat document text as HTML")
	appendDocs := fs.Bool("append", false, "Add to the stored corpus instead of starting fresh")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *corpus == "" {
		return fmt.Errorf("%w: --corpus is required", internalerr.ErrInvalidInput)
	}

	docs, err := readCorpus(*corpus, *stripHTML)
	if err != nil {
		return err
	}
	opts, err := classifierOptions(cfg, logger)
	if err != nil {
		return err
	}
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	c := lexiclass.New(opts)
	if *appendDocs {
		if c, err = loadClassifier(ctx, backend, opts, true); err != nil {
			return err
		}
	}
	for _, d := range docs {
		c.AddDocument(lexiclass.Text(d.Text), d.Label)
	}
	if err := c.Train(ctx); err != nil {
		return err
	}
	if _, err := c.SaveTo(ctx, backend).Wait(ctx); err != nil {
		return err
	}

	table := newTable(out, "Documents", "Vocabulary", "Labels")
	table.Append([]string{
		strconv.Itoa(len(c.Documents())),
		strconv.Itoa(len(c.Vocabulary())),
		strings.Join(c.Labels(), ", "),
	})
	table.Render()
	return nil
}

func runClassify(ctx context.Context, cfg Config, logger *slog.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	storeFlags(fs, &cfg)
	top := fs.Int("top", 0, "Show only the best N labels (0 shows all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: nothing to classify", internalerr.ErrInvalidInput)
	}

	opts, err := classifierOptions(cfg, logger)
	if err != nil {
		return err
	}
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	c, err := loadClassifier(ctx, backend, opts, false)
	if err != nil {
		return err
	}
	ranked, err := c.GetClassifications(lexiclass.Text(text))
	if err != nil {
		return err
	}
	if *top > 0 && *top < len(ranked) {
		ranked = ranked[:*top]
	}

	table := newTable(out, "Label", "Score")
	for _, r := range ranked {
		table.Append([]string{r.Label, strconv.FormatFloat(r.Value, 'f', 4, 64)})
	}
	table.Render()
	return nil
}

func runSuggest(ctx context.Context, cfg Config, logger *slog.Logger, args []string, out io.Writer) error {
	th := stoplist.DefaultThresholds()
	fs := flag.NewFlagSet("suggest-stopwords", flag.ContinueOnError)
	storeFlags(fs, &cfg)
	fs.Float64Var(&th.DFPercent, "df", th.DFPercent, "Minimum document frequency, percent")
	fs.Float64Var(&th.PMIMax, "npmi", th.PMIMax, "Maximum NPMI with any label")
	fs.Float64Var(&th.CatEntropy, "entropy", th.CatEntropy, "Minimum label entropy")
	limit := fs.Int("limit", 50, "Maximum candidates to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts, err := classifierOptions(cfg, logger)
	if err != nil {
		return err
	}
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	c, err := loadClassifier(ctx, backend, opts, false)
	if err != nil {
		return err
	}
	candidates := c.SuggestStopwords(th)
	if *limit > 0 && len(candidates) > *limit {
		candidates = candidates[:*limit]
	}

	table := newTable(out, "Token", "Score", "NPMI", "Entropy")
	for _, cand := range candidates {
		table.Append([]string{
			cand.Token,
			strconv.FormatFloat(cand.Score, 'f', 3, 64),
			strconv.FormatFloat(cand.Reason.PMIMax, 'f', 3, 64),
			strconv.FormatFloat(cand.Reason.CatEntropy, 'f', 3, 64),
		})
	}
	table.Render()
	return nil
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}
