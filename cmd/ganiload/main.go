// GANI corpus loader. Reads per-namespace JSONL corpus files, embeds the
// chunks and writes them into the vector store the API serves from.
//
// Usage:
//
//	ganiload -corpus ./corpus -recreate -workers 4
//
// Each <namespace>.jsonl file holds one JSON object per line:
//
//	{"id": "work-3", "text": "...", "url": "https://...", "section": "Work"}
//
// id is optional; chunks without one get a random UUID, so -skip-existing is
// only effective for corpora with stable ids. Connection and model settings
// come from the same config files the server reads (ENV selects one).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/config"
	"github.com/ganeshmamidipalli/GANI/internal/db"
	dbRedis "github.com/ganeshmamidipalli/GANI/internal/db/redis"
	"github.com/ganeshmamidipalli/GANI/internal/domain"
	logpkg "github.com/ganeshmamidipalli/GANI/internal/logger"
	"github.com/ganeshmamidipalli/GANI/internal/metrics"
	budgetrepo "github.com/ganeshmamidipalli/GANI/internal/repository/budget"
	corpusrepo "github.com/ganeshmamidipalli/GANI/internal/repository/corpus"
	snippetsrepo "github.com/ganeshmamidipalli/GANI/internal/repository/snippets"
	openaiProv "github.com/ganeshmamidipalli/GANI/internal/transport/openai"
	"github.com/ganeshmamidipalli/GANI/internal/usecase/llm"
	"github.com/ganeshmamidipalli/GANI/internal/version"
)

func main() {
	_ = godotenv.Load()

	cfg := parseFlags()

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		cancel()
		log.Fatal(err)
	}
}

type flags struct {
	corpusDir    string
	recreate     bool
	skipExisting bool
	batchSize    int
	workers      int
}

func parseFlags() flags {
	cfg := flags{}
	flag.StringVar(&cfg.corpusDir, "corpus", "./corpus", "directory with <namespace>.jsonl files")
	flag.BoolVar(&cfg.recreate, "recreate", false, "drop and recreate indexes before loading")
	flag.BoolVar(&cfg.skipExisting, "skip-existing", false, "skip documents already in the store")
	flag.IntVar(&cfg.batchSize, "batch-size", 32, "documents per embed+write batch")
	flag.IntVar(&cfg.workers, "workers", 4, "number of parallel load workers")
	flag.Parse()
	return cfg
}

type corpusFile struct {
	namespace string
	path      string
}

type corpusRecord struct {
	ID      string `json:"id,omitempty"`
	Text    string `json:"text"`
	URL     string `json:"url"`
	Section string `json:"section"`
}

// nsStats are per-namespace load totals.
type nsStats struct {
	processed int64
	skipped   int64
	failed    int64
	invalid   int64
	tokens    int64
}

func (s *nsStats) add(o nsStats) {
	s.processed += o.processed
	s.skipped += o.skipped
	s.failed += o.failed
	s.invalid += o.invalid
	s.tokens += o.tokens
}

func run(ctx context.Context, cfg flags) error {
	if cfg.workers < 1 || cfg.batchSize < 1 {
		return errors.New("workers and batch-size must be positive")
	}

	log.Printf("gani-load %s", version.String())
	start := time.Now()

	env := config.GetEnv()
	appCfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The loader narrates through the standard log package; zap goes to the
	// provider decorators so their output matches the server's.
	zlog, err := logpkg.NewLogger(env, appCfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    appCfg.Database.Addrs,
		Password: appCfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(appCfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()

	// Documents embed raw. The BGE retrieval instruction applies to queries
	// only, so the chain here is base -> instrumented, nothing else.
	base := openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
		APIKey:     appCfg.Embedding.APIKey,
		BaseURL:    appCfg.Embedding.BaseURL,
		Model:      appCfg.Embedding.Model,
		Dimensions: appCfg.Embedding.Dimensions,
		Provider:   "embedding",
	})
	embedder := llm.NewInstrumentedEmbedder(
		base, "embedding", appCfg.Embedding.Model, embeddingBudget(ctx, appCfg, store, zlog), zlog,
	)

	repo := corpusrepo.New(store, appCfg.Storage.KeyPrefix, appCfg.Embedding.Dimensions).
		WithHNSW(corpusrepo.HNSWConfig{
			M:           appCfg.Index.HNSWM,
			EFConstruct: appCfg.Index.HNSWEFConstruct,
		})

	files, err := stageDiscover(cfg, appCfg)
	if err != nil {
		return err
	}

	if err := stageIndexes(ctx, repo, files, cfg.recreate); err != nil {
		return err
	}

	total, err := stageLoad(ctx, repo, embedder, files, cfg)
	if err != nil {
		return err
	}

	stageReport(ctx, snippetsrepo.New(store, appCfg.Storage.KeyPrefix), files, total, start)
	return nil
}

// embeddingBudget wires the shared token budget so loader spend counts
// against the same daily and monthly windows as the server.
func embeddingBudget(ctx context.Context, cfg config.Config, store db.Store, logger *zap.Logger) llm.BudgetChecker {
	bc := cfg.Embedding.Budget
	if bc.DailyTokenLimit <= 0 && bc.MonthlyTokenLimit <= 0 {
		return nil
	}

	action := llm.BudgetActionWarn
	if bc.Action == "reject" {
		action = llm.BudgetActionReject
	}

	tracker := llm.NewBudgetTracker(
		"embedding", cfg.Storage.KeyPrefix, bc.DailyTokenLimit, bc.MonthlyTokenLimit, action, logger,
	)
	return tracker.WithStore(ctx, budgetrepo.New(store))
}

func stageDiscover(cfg flags, appCfg config.Config) ([]corpusFile, error) {
	log.Println("=== Stage 1: Discover ===")

	matches, err := filepath.Glob(filepath.Join(cfg.corpusDir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("scan corpus dir: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no *.jsonl corpus files in %s", cfg.corpusDir)
	}

	files := make([]corpusFile, 0, len(matches))
	for _, path := range matches {
		ns := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		files = append(files, corpusFile{namespace: ns, path: path})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].namespace < files[j].namespace })

	weights, err := appCfg.NamespaceWeights()
	if err != nil {
		return nil, fmt.Errorf("weight table: %w", err)
	}
	known := make(map[string]bool)
	for _, ns := range weights.AllNamespaces() {
		known[ns] = true
	}

	for _, f := range files {
		log.Printf("  %s (%s)", f.namespace, f.path)
		if !known[f.namespace] {
			log.Printf("  warning: namespace %q has no retrieval weight entry; the API will never read it", f.namespace)
		}
	}
	return files, nil
}

func stageIndexes(ctx context.Context, repo *corpusrepo.Repo, files []corpusFile, recreate bool) error {
	log.Println("=== Stage 2: Indexes ===")

	for _, f := range files {
		if recreate {
			deleted, err := repo.Recreate(ctx, f.namespace)
			if err != nil {
				return fmt.Errorf("recreate %s: %w", f.namespace, err)
			}
			log.Printf("  %s: recreated (%d stale documents removed)", f.namespace, deleted)
			continue
		}

		created, err := repo.EnsureIndex(ctx, f.namespace)
		if err != nil {
			return fmt.Errorf("ensure %s: %w", f.namespace, err)
		}
		if created {
			log.Printf("  %s: index created", f.namespace)
		} else {
			log.Printf("  %s: index exists", f.namespace)
		}
	}
	return nil
}

func stageLoad(
	ctx context.Context,
	repo *corpusrepo.Repo,
	embedder domain.BatchEmbedder,
	files []corpusFile,
	cfg flags,
) (nsStats, error) {
	log.Println("=== Stage 3: Load ===")

	ld := &loader{
		repo:         repo,
		embedder:     embedder,
		batchSize:    cfg.batchSize,
		workers:      cfg.workers,
		skipExisting: cfg.skipExisting,
	}

	var total nsStats
	for _, f := range files {
		st, err := ld.Run(ctx, f.namespace, f.path)
		total.add(st)
		if err != nil {
			return total, fmt.Errorf("load %s: %w", f.namespace, err)
		}
		log.Printf("%s: %d loaded, %d skipped, %d failed, %d invalid",
			f.namespace, st.processed, st.skipped, st.failed, st.invalid)
	}
	return total, nil
}

func stageReport(
	ctx context.Context,
	counts *snippetsrepo.Repo,
	files []corpusFile,
	total nsStats,
	start time.Time,
) {
	log.Println("=== Stage 4: Report ===")

	indexTotal := 0
	for _, f := range files {
		n, err := counts.Count(ctx, f.namespace)
		if err != nil {
			log.Printf("  %s: count failed: %v", f.namespace, err)
			continue
		}
		indexTotal += n
		log.Printf("  %s: %d documents indexed", f.namespace, n)
	}

	elapsed := time.Since(start)
	rate := float64(total.processed) / elapsed.Seconds()

	log.Printf("DONE in %s", elapsed.Round(time.Second))
	log.Printf("  loaded: %d (%d skipped, %d failed, %d invalid)",
		total.processed, total.skipped, total.failed, total.invalid)
	log.Printf("  rate: %.0f docs/sec", rate)
	log.Printf("  embedding tokens: %d", total.tokens)
	log.Printf("  index total: %d documents", indexTotal)
}

// loader is the worker pool for one namespace: reader -> channel of batches
// -> N workers -> embed -> HSET pipeline.
type loader struct {
	repo         *corpusrepo.Repo
	embedder     domain.BatchEmbedder
	batchSize    int
	workers      int
	skipExisting bool
}

// Run loads one namespace file. Batch-level failures are counted, not fatal;
// only reader-level failures abort the namespace.
func (l *loader) Run(ctx context.Context, namespace, path string) (nsStats, error) {
	batches := make(chan []corpusRecord, l.workers*2)
	var wg sync.WaitGroup
	var processed, skipped, failed, tokens atomic.Int64
	var invalid int64

	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			l.worker(ctx, workerID, namespace, batches, &processed, &skipped, &failed, &tokens)
		}(i)
	}

	var readErr error
	go func() {
		defer close(batches)
		readErr = l.produce(ctx, namespace, path, batches, &invalid)
	}()

	wg.Wait()

	return nsStats{
		processed: processed.Load(),
		skipped:   skipped.Load(),
		failed:    failed.Load(),
		invalid:   invalid,
		tokens:    tokens.Load(),
	}, readErr
}

// produce reads the JSONL file and forms batches.
func (l *loader) produce(
	ctx context.Context,
	namespace, path string,
	out chan<- []corpusRecord,
	invalid *int64,
) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open corpus file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	batch := make([]corpusRecord, 0, l.batchSize)
	line := 0
	for sc.Scan() {
		line++
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var rec corpusRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			log.Printf("%s line %d: skipping malformed record: %v", namespace, line, err)
			*invalid++
			continue
		}
		if strings.TrimSpace(rec.Text) == "" {
			log.Printf("%s line %d: skipping record without text", namespace, line)
			*invalid++
			continue
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}

		batch = append(batch, rec)
		if len(batch) >= l.batchSize {
			out <- batch
			batch = make([]corpusRecord, 0, l.batchSize)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read corpus file: %w", err)
	}

	if len(batch) > 0 {
		out <- batch
	}
	return nil
}

// worker drains batches from the channel.
func (l *loader) worker(
	ctx context.Context,
	id int,
	namespace string,
	batches <-chan []corpusRecord,
	processed, skipped, failed, tokens *atomic.Int64,
) {
	for batch := range batches {
		l.processBatch(ctx, id, namespace, batch, processed, skipped, failed, tokens)
	}
}

func (l *loader) processBatch(
	ctx context.Context,
	id int,
	namespace string,
	batch []corpusRecord,
	processed, skipped, failed, tokens *atomic.Int64,
) {
	docs := batch
	if l.skipExisting {
		kept := batch[:0]
		for _, rec := range batch {
			ok, err := l.repo.Exists(ctx, namespace, rec.ID)
			if err != nil {
				log.Printf("worker %d: %s: exists check for %s failed: %v", id, namespace, rec.ID, err)
				failed.Add(1)
				continue
			}
			if ok {
				skipped.Add(1)
				continue
			}
			kept = append(kept, rec)
		}
		docs = kept
	}
	if len(docs) == 0 {
		return
	}

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Text
	}

	res, err := l.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		log.Printf("worker %d: %s: embed batch failed: %v", id, namespace, err)
		failed.Add(int64(len(docs)))
		return
	}
	if len(res.Embeddings) != len(docs) {
		log.Printf("worker %d: %s: embedding count mismatch: got %d, want %d",
			id, namespace, len(res.Embeddings), len(docs))
		failed.Add(int64(len(docs)))
		return
	}
	tokens.Add(int64(res.TotalTokens))

	out := make([]corpusrepo.Document, len(docs))
	for i, rec := range docs {
		out[i] = corpusrepo.Document{
			ID:      rec.ID,
			Text:    rec.Text,
			URL:     rec.URL,
			Section: rec.Section,
			Vector:  res.Embeddings[i],
		}
	}

	if err := l.repo.UpsertBatch(ctx, namespace, out); err != nil {
		log.Printf("worker %d: %s: batch write failed: %v", id, namespace, err)
		failed.Add(int64(len(docs)))
		return
	}
	processed.Add(int64(len(docs)))

	if total := processed.Load(); total%500 < int64(len(docs)) {
		log.Printf("%s: %d loaded", namespace, total)
	}
}
