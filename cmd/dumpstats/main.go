package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"dumpstats/internal/app"
	"dumpstats/internal/config"
	"dumpstats/internal/encryption"
	"dumpstats/internal/stats"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	verbose bool
	quiet   bool
)

// newApp loads the config and creates a StatsApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "words", "cache prune").
func newApp(operation string, parameters ...string) (*app.StatsApp, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewStatsApp(cfg, operation, strings.Join(parameters, " "), app.Options{
		Verbose:    verbose,
		Quiet:      quiet,
		Passphrase: passphrase,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// passphrase reads the age key passphrase from the environment, prompting
// on the terminal when it is not set.
func passphrase() (string, error) {
	if p, err := app.EnvPassphrase(); err == nil {
		return p, nil
	}
	return prompt("Key passphrase: ")
}

func prompt(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to read the passphrase from; set %s", app.EnvPassphraseVar)
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// dumpRoot returns the dump directory from args or the configured default.
func dumpRoot(a *app.StatsApp, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if d := a.Config().DumpDir; d != "" {
		return d, nil
	}
	return "", errors.New("no dump directory given and dump_dir is not configured")
}

// dateFilter builds the date filter from the --start, --end and --remove flags.
func dateFilter(cmd *cobra.Command, a *app.StatsApp) (stats.DateFilter, error) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	remove, _ := cmd.Flags().GetString("remove")
	return a.DateFilter(start, end, remove)
}

func printRange(r stats.Range) {
	if r.From.IsZero() {
		return
	}
	fmt.Printf("From %s to %s\n\n", r.From.Format("2006-01-02 15:04"), r.To.Format("2006-01-02 15:04"))
}

func printSeries(title string, s stats.Series) {
	fmt.Printf("%s (%s)\n", title, humanize.Comma(int64(s.Total())))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i := range s.Points {
		fmt.Fprintf(w, "%s\t%d\t\n", s.Label(i), s.Points[i].Count)
	}
	w.Flush()
	fmt.Println()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var rootCmd = &cobra.Command{
	Use:          "dumpstats",
	Short:        "Statistics for a chat data export",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Cache:    %s (%s)\n", cfg.Cache.Dir, cfg.Cache.Type)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := app.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("# Configuration from %s\n\n", defaults.ConfigPath)
		m := &config.Manager{}
		return m.Write(os.Stdout, cfg)
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage cache encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the age key pair used to encrypt cached tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig()
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		c := encryption.NewAgeCipher(cfg.Encryption, nil)
		if c.IsConfigured() {
			return fmt.Errorf("keys already exist at %s", cfg.Encryption.PublicKeyPath)
		}

		p, err := passphrase()
		if err != nil {
			return err
		}
		if _, set := os.LookupEnv(app.EnvPassphraseVar); !set {
			again, err := prompt("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if again != p {
				return errors.New("passphrases do not match")
			}
		}
		if p == "" {
			return errors.New("passphrase must not be empty")
		}

		if err := c.Setup(p); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}
		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		fmt.Println("Set encryption.type = \"age\" in the config to encrypt the cache.")
		return nil
	},
}

// words command
var wordsCmd = &cobra.Command{
	Use:   "words [DUMP]",
	Short: "Most used words in messages",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("num")

		a, err := newApp("words", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := dumpRoot(a, args)
		if err != nil {
			return err
		}
		filter, err := dateFilter(cmd, a)
		if err != nil {
			return err
		}

		report, err := a.Words(root, filter, n)
		if err != nil {
			return err
		}

		printRange(report.Range)
		fmt.Printf("%s words, %s distinct shown\n\n", humanize.Comma(int64(report.Total)), humanize.Comma(int64(len(report.Words))))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for i, wc := range report.Words {
			fmt.Fprintf(w, "%d.\t%s\t%s\n", i+1, wc.Word, humanize.Comma(int64(wc.Count)))
		}
		return w.Flush()
	},
}

// messages command
var messagesCmd = &cobra.Command{
	Use:   "messages [DUMP]",
	Short: "Message counts over time, by hour of day and by weekday",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetString("interval")

		a, err := newApp("messages", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := dumpRoot(a, args)
		if err != nil {
			return err
		}
		filter, err := dateFilter(cmd, a)
		if err != nil {
			return err
		}
		g, err := a.Granularity(interval)
		if err != nil {
			return err
		}

		summary, err := a.Messages(root, filter, g)
		if err != nil {
			return err
		}

		printRange(summary.Range)
		printSeries("Messages per "+g.String(), summary.Series)
		printSeries("Messages per hour of day", summary.PerHour)
		printSeries("Messages per weekday", summary.PerWeekday)
		return nil
	},
}

// activity command
var activityCmd = &cobra.Command{
	Use:   "activity [DUMP]",
	Short: "Event counts over time for each activity type",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetString("interval")

		a, err := newApp("activity", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := dumpRoot(a, args)
		if err != nil {
			return err
		}
		g, err := a.Granularity(interval)
		if err != nil {
			return err
		}

		byType, err := a.Activity(root, g)
		if err != nil {
			return err
		}
		for _, et := range sortedKeys(byType) {
			printSeries(et, byType[et])
		}
		return nil
	},
}

// series command
var seriesCmd = &cobra.Command{
	Use:   "series [DUMP]",
	Short: "Activity over time split by category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cols, _ := cmd.Flags().GetStringSlice("columns")
		interval, _ := cmd.Flags().GetString("interval")

		a, err := newApp("series", append(args, cols...)...)
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := dumpRoot(a, args)
		if err != nil {
			return err
		}
		g, err := a.Granularity(interval)
		if err != nil {
			return err
		}

		report, err := a.Series(root, cols, g)
		if err != nil {
			return err
		}

		for _, col := range sortedKeys(report.Columns) {
			m := report.Columns[col]
			keys := sortedKeys(m)
			if len(keys) == 0 {
				continue
			}

			fmt.Printf("== %s ==\n", col)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", g, strings.Join(keys, "\t"))
			ref := m[keys[0]]
			for i := range ref.Points {
				row := make([]string, len(keys))
				for k, key := range keys {
					row[k] = fmt.Sprint(m[key].Points[i].Count)
				}
				fmt.Fprintf(w, "%s\t%s\n", ref.Label(i), strings.Join(row, "\t"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println()
		}
		return nil
	},
}

// heatmap command
var heatmapCmd = &cobra.Command{
	Use:   "heatmap [DUMP]",
	Short: "Hour-by-day activity heatmap",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("heatmap", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := dumpRoot(a, args)
		if err != nil {
			return err
		}

		h, err := a.Heatmap(root)
		if err != nil {
			return err
		}

		fmt.Printf("%s events over %d days (%s)\n\n",
			humanize.Comma(int64(h.Total())), len(h.Days), a.Location().Location())
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
		for _, d := range h.Days {
			fmt.Fprintf(w, "\t%s", d.Format("01/02"))
		}
		fmt.Fprintln(w, "\t")
		for hour, row := range h.Rows {
			fmt.Fprintf(w, "%02d", hour)
			for _, c := range row {
				fmt.Fprintf(w, "\t%d", c)
			}
			fmt.Fprintln(w, "\t")
		}
		return w.Flush()
	},
}

// cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the parsed-table cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("cache list")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.CacheEntries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Cache is empty.")
			return nil
		}

		var total int64
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tARTIFACT\tROWS\tSIZE\tFLAGS\tCREATED\tSOURCE")
		for _, e := range entries {
			flags := ""
			if e.Compressed {
				flags += "z"
			}
			if e.Encrypted {
				flags += "e"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Seq, e.Artifact, humanize.Comma(int64(e.Rows)), humanize.Bytes(uint64(e.Size)),
				flags, humanize.Time(e.CreatedAt), sourceOf(e.Key))
			total += e.Size
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d entries, %s\n", len(entries), humanize.Bytes(uint64(total)))
		return nil
	},
}

// sourceOf extracts the source path from a cache key for display.
func sourceOf(key string) string {
	const marker = `"path":"`
	i := strings.Index(key, marker)
	if i < 0 {
		return key
	}
	rest := key[i+len(marker):]
	if j := strings.IndexByte(rest, '"'); j >= 0 {
		return rest[:j]
	}
	return rest
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove dangling index entries and orphaned artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("cache prune")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.PruneCache()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d dangling entries and %d orphaned artifacts\n", res.DanglingEntries, res.OrphanArtifacts)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached table",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("cache clear")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ClearCache()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached table(s)\n", n)
		return nil
	},
}

var cacheBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Copy the cache index database to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("cache backup", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.BackupIndex(args[0]); err != nil {
			return err
		}
		fmt.Printf("Index copied to %s\n", args[0])
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				d := r.FinishedAt.Time.Sub(r.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-12s  %s  %-8s  %-8s  %s\n",
				r.ID,
				r.Operation,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				duration,
				r.Parameters,
			)
		}
		return nil
	},
}

const intervalHelp = "Bucket width: hour, day, week, hour-of-day, day-of-week, or a duration like 6h or 3d"

func addDateFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "First day to include (YYYY/MM/DD)")
	cmd.Flags().String("end", "", "Last day to include (YYYY/MM/DD)")
	cmd.Flags().String("remove", "", "Days to exclude (YYYY/MM/DD or YYYY/MM/DD-YYYY/MM/DD)")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages to stderr")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors to stderr")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// cache subcommands
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheBackupCmd)

	// analysis commands
	wordsCmd.Flags().IntP("num", "n", 0, "Number of words to show (-1 for all, 0 for the configured default)")
	addDateFlags(wordsCmd)
	messagesCmd.Flags().StringP("interval", "i", "", intervalHelp)
	addDateFlags(messagesCmd)
	activityCmd.Flags().StringP("interval", "i", "", intervalHelp)
	seriesCmd.Flags().StringP("interval", "i", "", intervalHelp)
	seriesCmd.Flags().StringSliceP("columns", "c", nil, "Activity columns to split by (default from config)")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(wordsCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
}
