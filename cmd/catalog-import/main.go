// Command catalog-import bulk-loads product feeds into the catalog.
//
// A feed is a gzip-compressed file of JSON lines, one product per line:
//
//	{"title":"...","description":"...","price":"12.50","quantity":10,
//	 "colors":["red"],"category":"<category-id>","brand":"<brand-id>"}
//
// Feeds routinely overlap (full exports from several upstream systems), so
// titles already imported are skipped. A bloom filter keeps the dedup set in
// memory even for feeds with tens of millions of lines; the database's
// unique slug constraint catches the filter's rare false negatives.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sellora/storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 50_000_000
	bloomFPR      = 0.001
	batchSize     = 500
	progressEvery = 100_000
)

// product is the parsed shape of one feed line.
type product struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Colors      []string
	Category    string
	Brand       string
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing products*.json.gz feed files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "products*.json.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no products*.json.gz files in %s", dataDir)
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	products := make(chan product, 4*batchSize)

	g, ctx := errgroup.WithContext(ctx)

	// One parser per feed file; parsed lines funnel into the writer.
	parsers, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		parsers.Go(func() error {
			return parseFeed(ctx, file, products)
		})
	}
	g.Go(func() error {
		defer close(products)
		return parsers.Wait()
	})

	// Single writer: dedup on slug, batch inserts.
	g.Go(func() error {
		return writeProducts(ctx, pool, seen, products)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

// parseFeed streams one gzipped feed file into the products channel.
func parseFeed(ctx context.Context, path string, out chan<- product) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader %s", path)
	}
	defer gz.Close()

	var (
		scanner = bufio.NewScanner(gz)
		lineNum int
	)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		p, err := parseLine(line)
		if err != nil {
			slog.Warn("skipping malformed line",
				slog.String("file", filepath.Base(path)),
				slog.Int("line", lineNum),
				slog.String("error", err.Error()),
			)
			continue
		}

		select {
		case out <- p:
		case <-ctx.Done():
			return ctx.Err()
		}

		if lineNum%progressEvery == 0 {
			slog.Info("parsing progress",
				slog.String("file", filepath.Base(path)),
				slog.Int("lines", lineNum),
			)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// parseLine decodes a single feed line without allocating an intermediate
// map.
func parseLine(line []byte) (product, error) {
	var p product
	d := jx.DecodeBytes(line)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "title":
			v, err := d.Str()
			p.Title = v
			return err
		case "description":
			v, err := d.Str()
			p.Description = v
			return err
		case "price":
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				// Price can also arrive as a bare number.
				p.Price, err = decimal.NewFromString(string(raw))
				return err
			}
			p.Price, err = decimal.NewFromString(s)
			return err
		case "quantity":
			v, err := d.Int()
			p.Quantity = v
			return err
		case "colors":
			return d.Arr(func(d *jx.Decoder) error {
				v, err := d.Str()
				p.Colors = append(p.Colors, v)
				return err
			})
		case "category":
			v, err := d.Str()
			p.Category = v
			return err
		case "brand":
			v, err := d.Str()
			p.Brand = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return product{}, err
	}
	if p.Title == "" {
		return product{}, errors.New("missing title")
	}
	if p.Price.IsNegative() {
		return product{}, errors.New("negative price")
	}
	return p, nil
}

const insertProductSQL = `INSERT INTO products (id, slug, doc, created_at, updated_at)
	VALUES ($1, $2, $3, now(), now())
	ON CONFLICT (slug) DO NOTHING`

// writeProducts drains the channel, skips slugs the bloom filter has seen,
// and flushes inserts in batches.
func writeProducts(ctx context.Context, pool interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}, seen *bloom.BloomFilter, in <-chan product) error {
	var (
		batch    = &pgx.Batch{}
		imported int
		skipped  int
		started  = time.Now()
	)

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "flush batch")
		}
		batch = &pgx.Batch{}
		return nil
	}

	for p := range in {
		s := slug.Make(p.Title)
		if seen.TestAndAddString(s) {
			skipped++
			continue
		}

		doc, err := json.Marshal(map[string]any{
			"title":       p.Title,
			"description": p.Description,
			"price":       p.Price,
			"quantity":    p.Quantity,
			"sold":        0,
			"colors":      p.Colors,
			"category":    p.Category,
			"brand":       p.Brand,
		})
		if err != nil {
			return errors.Wrap(err, "encode product doc")
		}

		batch.Queue(insertProductSQL, uuid.New().String(), s, doc)
		imported++

		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
		if imported%progressEvery == 0 {
			slog.Info("import progress",
				slog.Int("imported", imported),
				slog.Int("skipped", skipped),
				slog.Duration("elapsed", time.Since(started).Round(time.Second)),
			)
		}
	}
	if err := flush(); err != nil {
		return err
	}

	slog.Info("import finished",
		slog.Int("imported", imported),
		slog.Int("skipped", skipped),
		slog.Duration("elapsed", time.Since(started).Round(time.Second)),
	)
	return nil
}
