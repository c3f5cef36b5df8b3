package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/jobmatch/internal/bootstrap"
	"github.com/target/jobmatch/internal/data"
	"github.com/target/jobmatch/internal/domain/model"
)

const (
	defaultCommandTimeout = 30 * time.Second
	weatherKeyPattern     = "weather:cell:*"
	redisScanCount        = 500
)

type expireOnceOptions struct {
	Timeout   time.Duration
	BatchSize int
}

func runExpireOnce(cmdCtx *commandContext, args []string) error {
	opts, err := parseExpireOnceFlags(args)
	if err != nil {
		return err
	}

	reaperCfg := cmdCtx.Config.Reaper
	if opts.BatchSize > 0 {
		reaperCfg.BatchSize = opts.BatchSize
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		expired, err := bootstrap.ExpireOnce(ctx, bootstrap.ReaperConfig{
			DB:     db,
			Logger: cmdCtx.Logger,
			Config: reaperCfg,
		})
		if err != nil {
			return err
		}
		return writef(os.Stdout, "expired %d job(s)\n", expired)
	})
}

func parseExpireOnceFlags(args []string) (expireOnceOptions, error) {
	fs := flag.NewFlagSet("expire-once", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := expireOnceOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration of the sweep")
	fs.IntVar(&opts.BatchSize, "batch-size", 0, "Override REAPER_BATCH_SIZE for this sweep")

	if err := fs.Parse(args); err != nil {
		return expireOnceOptions{}, err
	}
	if opts.Timeout <= 0 {
		return expireOnceOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.BatchSize < 0 {
		return expireOnceOptions{}, errors.New("--batch-size must not be negative")
	}
	return opts, nil
}

type statsOptions struct {
	JSON bool
}

func runStats(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var opts statsOptions
	fs.BoolVar(&opts.JSON, "json", false, "Print counts as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		stats, err := data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}).Stats(ctx)
		if err != nil {
			return err
		}
		return printStats(os.Stdout, stats, opts)
	})
}

func printStats(w io.Writer, stats *model.JobStats, opts statsOptions) error {
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		status model.JobStatus
		count  int
	}{
		{model.JobStatusPending, stats.Pending},
		{model.JobStatusAssigned, stats.Assigned},
		{model.JobStatusExpired, stats.Expired},
		{model.JobStatusCompleted, stats.Completed},
		{model.JobStatusCancelled, stats.Cancelled},
	}
	if err := writef(tw, "STATUS\tJOBS\n"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writef(tw, "%s\t%d\n", r.status, r.count); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type clearWeatherOptions struct {
	DryRun bool
	Yes    bool
}

func (o clearWeatherOptions) IsDryRun() bool     { return o.DryRun }
func (o clearWeatherOptions) IsYes() bool        { return o.Yes }
func (o clearWeatherOptions) GetWarning() string { return "Cached conditions will be refetched on the next lookup." }
func (o clearWeatherOptions) GetTarget() string  { return "every weather cell" }

func runClearWeatherCache(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("clear-weather-cache", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var opts clearWeatherOptions
	fs.BoolVar(&opts.DryRun, "dry-run", false, "List matching keys without deleting them")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !cmdCtx.Config.Redis.Enabled {
		return errors.New("redis is disabled (REDIS_ENABLED=false); there is no weather cache to clear")
	}
	if err := confirmAction(opts, "clear cached weather"); err != nil {
		return err
	}

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: cmdCtx.Config.Redis, Logger: cmdCtx.Logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	pattern := cmdCtx.Config.Redis.KeyPrefix + weatherKeyPattern
	matched, deleted, err := clearKeys(ctx, client, pattern, opts.DryRun)
	if err != nil {
		return err
	}
	if opts.DryRun {
		return writef(os.Stdout, "%d weather key(s) match %q (dry run, nothing deleted)\n", matched, pattern)
	}
	return writef(os.Stdout, "deleted %d of %d weather key(s)\n", deleted, matched)
}

// clearKeys scans for pattern and unlinks matches in scan-sized batches.
func clearKeys(ctx context.Context, client redis.UniversalClient, pattern string, dryRun bool) (int, int64, error) {
	var (
		matched int
		deleted int64
	)
	iter := client.Scan(ctx, 0, pattern, redisScanCount).Iterator()
	batch := make([]string, 0, redisScanCount)
	flush := func() error {
		if len(batch) == 0 || dryRun {
			batch = batch[:0]
			return nil
		}
		n, err := client.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("unlink weather keys: %w", err)
		}
		deleted += n
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		matched++
		batch = append(batch, iter.Val())
		if len(batch) == redisScanCount {
			if err := flush(); err != nil {
				return matched, deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return matched, deleted, fmt.Errorf("scan weather keys: %w", err)
	}
	if err := flush(); err != nil {
		return matched, deleted, err
	}
	return matched, deleted, nil
}
