// Command promo-ingest bulk-loads campaign promo-code lists into PostgreSQL.
// Input files are gzip-compressed, one code per line. Files are scanned
// concurrently; bloom filters keep the dedupe pass in memory even for very
// large lists, and the per-code upsert is idempotent anyway.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/greenbasket/storefront/internal/domain/promo"
	"github.com/greenbasket/storefront/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	minCodeLen    = 4
	maxCodeLen    = 12
)

// fileCodes holds the codes found in one input file, deduplicated within
// that file.
type fileCodes struct {
	codes []string
}

func main() {
	var (
		databaseURL string
		rateStr     string
		description string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&rateStr, "rate", "0.10", "discount rate for ingested codes (0 < rate < 1)")
	flag.StringVar(&description, "description", "Campaign promo code", "description for ingested codes")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("at least one codes file is required: promo-ingest [flags] file1.gz [file2.gz ...]")
		os.Exit(1)
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	rate, err := decimal.NewFromString(rateStr)
	if err != nil || rate.LessThanOrEqual(decimal.Zero) || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		slog.Error("rate must be a decimal in (0, 1)", slog.String("rate", rateStr))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files, rate, description); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, rate decimal.Decimal, description string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("scanning code files", slog.Int("files", len(files)))

	codes, err := collectCodes(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect codes")
	}

	slog.Info("codes collected", slog.Int("count", len(codes)))

	if len(codes) == 0 {
		slog.Info("no codes to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writeCodes(ctx, repository.NewPromoRepository(pool), codes, rate, description); err != nil {
		return errors.Wrap(err, "write promo codes")
	}

	return nil
}

// collectCodes scans every file concurrently, then merges the per-file
// results into one deduplicated code list.
func collectCodes(ctx context.Context, files []string) ([]string, error) {
	results := make([]fileCodes, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(scanCodesFile(ctx, i, f, results))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Cross-file dedupe. The filter may very rarely drop a genuinely new
	// code as a false positive; the rate is bounded by bloomFPR.
	merged := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	var codes []string
	for _, r := range results {
		for _, code := range r.codes {
			if merged.TestOrAddString(code) {
				continue
			}
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func scanCodesFile(ctx context.Context, idx int, path string, results []fileCodes) func() error {
	return func() error {
		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var codes []string
		var total uint64

		if err := streamGzFile(ctx, path, func(line string) {
			code := normalizeCode(line)
			if code == "" {
				return
			}
			total++
			if total%progressEvery == 0 {
				slog.Info("scan progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", total),
				)
			}
			if seen.TestOrAddString(code) {
				return
			}
			codes = append(codes, code)
		}); err != nil {
			return errors.Wrapf(err, "scan file %d", idx+1)
		}

		slog.Info("scan complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", total),
			slog.Int("unique", len(codes)),
		)

		results[idx] = fileCodes{codes: codes}
		return nil
	}
}

// normalizeCode uppercases and trims a raw line, returning "" for lines that
// cannot be promo codes.
func normalizeCode(line string) string {
	code := strings.ToUpper(strings.TrimSpace(line))
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return ""
	}
	for i := range len(code) {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return code
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeCodes upserts every collected code with the campaign rate.
func writeCodes(ctx context.Context, repo *repository.PromoRepository, codes []string, rate decimal.Decimal, description string) error {
	slog.Info("writing promo codes to database", slog.Int("count", len(codes)))

	for i, code := range codes {
		rule := promo.Rule{
			Code:        code,
			Rate:        rate,
			Description: description,
		}
		if err := repo.Upsert(ctx, rule, true); err != nil {
			return errors.Wrapf(err, "upsert promo code %s", code)
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}

	return nil
}
