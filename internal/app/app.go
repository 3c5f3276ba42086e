package app

import (
	"fmt"
	"log/slog"
	"os"

	"dumpstats/internal/cache"
	"dumpstats/internal/config"
	"dumpstats/internal/database"
	"dumpstats/internal/encryption"
	"dumpstats/internal/fs"
	"dumpstats/internal/stats"
)

// Options tune how a StatsApp is built. Zero values select the defaults.
type Options struct {
	Verbose    bool                      // echo debug logs to stderr
	Quiet      bool                      // only errors on stderr
	Passphrase encryption.PassphraseFunc // unlocks the age key; nil reads DUMPSTATS_PASSPHRASE
	Clock      stats.Clock
	IDs        stats.IDGenerator
}

// StatsApp is the application layer between the CLI and stats.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI arguments, and records the run in the history on Close.
type StatsApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	cache   *cache.SourceCache
	service *stats.Service
	clock   stats.Clock
	op      *Operation
	logger  stats.Logger
	logFile *os.File
}

// NewStatsApp creates a fully wired StatsApp from the given config.
// operation identifies the CLI command being run (e.g. "words", "heatmap").
// The caller must call Close when done.
func NewStatsApp(cfg *config.Config, operation, parameters string, opts Options) (*StatsApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = stats.RealClock{}
	}
	if opts.IDs == nil {
		opts.IDs = stats.UUIDGenerator{}
	}
	if opts.Passphrase == nil {
		opts.Passphrase = EnvPassphrase
	}

	runID := opts.IDs.New()
	stderrLevel := slog.LevelWarn
	switch {
	case opts.Verbose:
		stderrLevel = slog.LevelDebug
	case opts.Quiet:
		stderrLevel = slog.LevelError
	}
	sl, logFile, err := newLogger(cfg.LogDir, runID, stderrLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	db, err := database.NewDatabaseFromConfig(cfg.Cache)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening cache index: %w", err)
	}

	store, err := cache.NewStoreFromConfig(cfg.Cache)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating artifact store: %w", err)
	}

	cipher, err := encryption.NewCipherFromConfig(cfg.Encryption, opts.Passphrase)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	sc := cache.NewSourceCache(db, store, cipher, cfg.Cache.Compress, opts.Clock, logger)
	loc := stats.NewLocalizer(cfg.Timezone, logger)
	finder := fs.NewOSDumpFinder(cfg.Filesystem.Ignore)
	svc := stats.NewService(sc, finder, loc, logger, db, cfg.Workers)

	op := NewOperation(runID, operation, parameters)
	run, err := db.CreateRun(runID, operation, parameters, opts.Clock.Now())
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("recording run: %w", err)
	}
	op.ID = run.ID

	logger.Info("run started", "operation", operation, "parameters", parameters, "timezone", loc.Name())

	return &StatsApp{
		cfg:     cfg,
		db:      db,
		cache:   sc,
		service: svc,
		clock:   opts.Clock,
		op:      op,
		logger:  logger,
		logFile: logFile,
	}, nil
}

// EnvPassphrase reads the age key passphrase from $DUMPSTATS_PASSPHRASE.
func EnvPassphrase() (string, error) {
	if p, ok := os.LookupEnv(EnvPassphraseVar); ok {
		return p, nil
	}
	return "", fmt.Errorf("%s is not set", EnvPassphraseVar)
}

// Operation returns the operation being recorded.
func (a *StatsApp) Operation() *Operation {
	return a.op
}

// Config returns the configuration the app was built from.
func (a *StatsApp) Config() *config.Config {
	return a.cfg
}

// Location returns the display zone, for formatting output.
func (a *StatsApp) Location() *stats.Localizer {
	return a.service.Localizer()
}

// Granularity parses raw, falling back to the configured interval.
func (a *StatsApp) Granularity(raw string) (stats.Granularity, error) {
	if raw == "" {
		raw = a.cfg.Analysis.Interval
	}
	if raw == "" {
		return stats.Day, nil
	}
	g, err := stats.ParseGranularity(raw)
	if err != nil {
		return stats.Granularity{}, fmt.Errorf("interval: %w", err)
	}
	return g, nil
}

// DateFilter parses the --start, --end and --remove arguments in the
// display zone.
func (a *StatsApp) DateFilter(start, end, remove string) (stats.DateFilter, error) {
	return stats.ParseDateFilter(start, end, remove, a.service.Localizer().Location())
}

// WordReport is the result of Words.
type WordReport struct {
	Range stats.Range
	Total int
	Words []stats.WordCount
}

// Words ranks the words of all messages. n limits the result; n < 0
// returns every word and n == 0 uses the configured default.
func (a *StatsApp) Words(root string, filter stats.DateFilter, n int) (*WordReport, error) {
	t, r, err := a.service.LoadMessages(root, filter)
	if err != nil {
		return nil, a.fail(err)
	}
	ranked, err := a.service.RankWords(t)
	if err != nil {
		return nil, a.fail(err)
	}

	total := stats.TotalWords(ranked)
	if n == 0 {
		n = a.cfg.Analysis.TopWords
	}
	ranked = stats.TopWords(ranked, n)
	a.op.Done(nil)
	return &WordReport{Range: r, Total: total, Words: ranked}, nil
}

// Messages counts messages at g, per hour of day and per weekday.
func (a *StatsApp) Messages(root string, filter stats.DateFilter, g stats.Granularity) (*stats.MessageSummary, error) {
	t, r, err := a.service.LoadMessages(root, filter)
	if err != nil {
		return nil, a.fail(err)
	}
	summary, err := a.service.SummarizeMessages(t, r, g)
	if err != nil {
		return nil, a.fail(err)
	}
	a.op.Done(nil)
	return summary, nil
}

// Activity counts events per event type at g.
func (a *StatsApp) Activity(root string, g stats.Granularity) (map[string]stats.Series, error) {
	out, err := a.service.CountActivity(root, g)
	if err != nil {
		return nil, a.fail(err)
	}
	a.op.Done(nil)
	return out, nil
}

// SeriesReport is the result of Series.
type SeriesReport struct {
	Columns map[string]stats.CategorySeriesMap
	Servers map[string]string
}

// Series splits activity by each of cols (the configured columns when
// empty) at g, naming guilds from the dump's server index.
func (a *StatsApp) Series(root string, cols []string, g stats.Granularity) (*SeriesReport, error) {
	if len(cols) == 0 {
		cols = a.cfg.Analysis.Columns
	}
	servers, err := a.service.Servers(root)
	if err != nil {
		return nil, a.fail(err)
	}
	out, err := a.service.CategorySeries(root, cols, g, servers)
	if err != nil {
		return nil, a.fail(err)
	}
	a.op.Done(nil)
	return &SeriesReport{Columns: out, Servers: servers}, nil
}

// Heatmap builds the hour-by-day activity heatmap.
func (a *StatsApp) Heatmap(root string) (*stats.Heatmap, error) {
	h, err := a.service.ActivityHeatmap(root)
	if err != nil {
		return nil, a.fail(err)
	}
	a.op.Done(nil)
	return h, nil
}

// CacheEntries lists the cache index.
func (a *StatsApp) CacheEntries() ([]*cache.Entry, error) {
	entries, err := a.cache.Entries()
	a.op.Done(err)
	return entries, err
}

// PruneCache drops dangling index rows and orphaned artifacts.
func (a *StatsApp) PruneCache() (cache.PruneResult, error) {
	res, err := a.cache.Prune()
	a.op.Done(err)
	return res, err
}

// ClearCache removes every cached table.
func (a *StatsApp) ClearCache() (int, error) {
	n, err := a.cache.Clear()
	a.op.Done(err)
	return n, err
}

// BackupIndex copies the index database to dest.
func (a *StatsApp) BackupIndex(dest string) error {
	err := a.db.BackupTo(dest)
	a.op.Done(err)
	return err
}

// GetHistory returns the most recent runs, newest first.
func (a *StatsApp) GetHistory(limit int) ([]*stats.Run, error) {
	runs, err := a.service.GetHistory(limit)
	a.op.Done(err)
	return runs, err
}

// fail marks the operation failed and logs err.
func (a *StatsApp) fail(err error) error {
	a.op.Done(err)
	a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
	return err
}

// Close finalizes the run record and closes all resources.
// It is safe to call more than once.
func (a *StatsApp) Close() error {
	var firstErr error

	if a.db != nil {
		if a.op.Persisted() {
			status := a.op.finalStatus()
			if err := a.db.FinishRun(a.op.ID, status, a.clock.Now()); err != nil {
				firstErr = fmt.Errorf("finishing run: %w", err)
			}
			a.logger.Info("run finished", "status", status)
		}
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
		a.db = nil
	}

	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}

	return firstErr
}
