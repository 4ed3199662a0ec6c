package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"browserdb/internal/browser"
	"browserdb/internal/compare"
	"browserdb/internal/config"
	"browserdb/internal/csvio"
	"browserdb/internal/logging"
	"browserdb/internal/report"
	"browserdb/internal/session"
	"browserdb/internal/sorting"
	"browserdb/internal/stats"
	"browserdb/internal/store/sqlite"
	"browserdb/internal/table"
)

// app carries what every command needs once the root pre-run has loaded
// the configuration.
type app struct {
	configPath string
	dataPath   string
	verbose    bool
	plain      bool

	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

func main() {
	a := &app{now: time.Now}
	if err := newRootCmd(a).Execute(); err != nil {
		if a.logger != nil {
			a.logger.Error("command failed", zap.Error(err))
			_ = a.logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "browserdb",
		Short: "Manage, sort and report on a CSV dataset of web browsers",
		Long: `browserdb keeps a small CSV table of web browsers (id, name, developer,
release year, version, engine) and offers CRUD commands, type-aware sorting,
grouped statistics and reports in text, HTML or CSV form.

Run "browserdb shell" for an interactive session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.dataPath, "data", "", "CSV data file (overrides data_file from config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.plain, "plain", false, "print tables without colors")

	root.AddCommand(
		newCreateCmd(a),
		newPrintCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newSortCmd(a),
		newReportCmd(a),
		newMetricsCmd(a),
		newShareCmd(a),
		newExportSQLiteCmd(a),
		newImportSQLiteCmd(a),
		newCompareCmd(a),
		newShuffleCmd(a),
		newShellCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataPath != "" {
		cfg.DataFile = a.dataPath
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg
	if a.now == nil {
		a.now = time.Now
	}
	if a.logger == nil {
		if a.logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) load() ([]browser.Record, error) {
	records, err := csvio.Load(a.cfg.DataFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("data file %s does not exist (run \"browserdb create\")", a.cfg.DataFile)
		}
		return nil, err
	}
	a.logger.Debug("dataset loaded", zap.String("path", a.cfg.DataFile), zap.Int("records", len(records)))
	return records, nil
}

func (a *app) save(records []browser.Record) error {
	if err := csvio.Save(a.cfg.DataFile, records); err != nil {
		return fmt.Errorf("save %s: %w", a.cfg.DataFile, err)
	}
	a.logger.Debug("dataset saved", zap.String("path", a.cfg.DataFile), zap.Int("records", len(records)))
	return nil
}

func (a *app) sorter() sorting.Sorter {
	return sorting.Sorter{Resolver: sorting.Resolver{Strict: a.cfg.Sort.Strict}}
}

func (a *app) generator() *report.Generator {
	g := report.NewGenerator(a.cfg.Estimator())
	g.Now = a.now
	return g
}

func (a *app) newSession(records []browser.Record) *session.Session {
	return session.New(records, a.sorter(), a.logger)
}

func (a *app) printTable(w io.Writer, title string, records []browser.Record) {
	styles := table.DefaultStyles()
	if a.plain {
		styles = table.PlainStyles()
	}
	fmt.Fprint(w, table.FromRecords(title, records).Render(styles))
	fmt.Fprintln(w, table.StatsLine(browser.Summarize(records)))
}

func newCreateCmd(a *app) *cobra.Command {
	var sample, force bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new data file, optionally filled with sample browsers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.cfg.DataFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.cfg.DataFile)
			}
			var records []browser.Record
			if sample {
				records = browser.SampleRecords()
			}
			if err := a.save(records); err != nil {
				return err
			}
			a.logger.Info("data file created", zap.String("path", a.cfg.DataFile), zap.Int("records", len(records)))
			fmt.Fprintf(cmd.OutOrStdout(), "created %s with %d records\n", a.cfg.DataFile, len(records))
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "fill the file with five sample browsers")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newPrintCmd(a *app) *cobra.Command {
	var developer, engine, search string
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the dataset as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.load()
			if err != nil {
				return err
			}
			records = browser.Filter(records, developer, engine)
			if search != "" {
				records = browser.Search(records, search)
			}
			a.printTable(cmd.OutOrStdout(), "Browsers ("+a.cfg.DataFile+")", records)
			return nil
		},
	}
	cmd.Flags().StringVar(&developer, "developer", "", "only this developer")
	cmd.Flags().StringVar(&engine, "engine", "", "only this engine")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive substring of the name")
	return cmd
}

var recordFlagNames = []struct {
	field browser.Field
	name  string
}{
	{browser.FieldID, "id"},
	{browser.FieldName, "name"},
	{browser.FieldDeveloper, "developer"},
	{browser.FieldReleaseYear, "year"},
	{browser.FieldVersion, "version"},
	{browser.FieldEngine, "engine"},
}

// recordFlags binds one string flag per record field.
type recordFlags struct {
	values map[browser.Field]*string
}

func addRecordFlags(cmd *cobra.Command) *recordFlags {
	rf := &recordFlags{values: make(map[browser.Field]*string)}
	for _, f := range recordFlagNames {
		rf.values[f.field] = cmd.Flags().String(f.name, "", f.field.Label())
	}
	return rf
}

// apply copies every flag the user set onto r.
func (rf *recordFlags) apply(cmd *cobra.Command, r *browser.Record) {
	for _, f := range recordFlagNames {
		if cmd.Flags().Changed(f.name) {
			r.Set(f.field, *rf.values[f.field])
		}
	}
}

func newAddCmd(a *app) *cobra.Command {
	var rf *recordFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a browser; the id defaults to the next free number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.load()
			if err != nil {
				return err
			}
			s := a.newSession(records)
			var r browser.Record
			rf.apply(cmd, &r)
			added, err := s.Add(r)
			if err != nil {
				return err
			}
			if err := a.save(s.Records()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (id %s)\n", added.Name, added.ID)
			return nil
		},
	}
	rf = addRecordFlags(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var rf *recordFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an existing browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.load()
			if err != nil {
				return err
			}
			s := a.newSession(records)
			r, err := s.Data.Get(args[0])
			if err != nil {
				return fmt.Errorf("id %s: %w", args[0], err)
			}
			rf.apply(cmd, &r)
			if err := s.Update(args[0], r); err != nil {
				return err
			}
			if err := a.save(s.Records()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated id %s\n", r.Trimmed().ID)
			return nil
		},
	}
	rf = addRecordFlags(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var name, developer string
	var all bool
	cmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete browsers by id, by name search or developer, or all of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.load()
			if err != nil {
				return err
			}
			s := a.newSession(records)
			if all {
				n := s.Clear()
				if err := a.save(s.Records()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records\n", n)
				return nil
			}
			ids := args
			if name != "" || developer != "" {
				ids = nil
				matches := browser.Filter(records, developer, "")
				if name != "" {
					matches = browser.Search(matches, name)
				}
				for _, r := range matches {
					ids = append(ids, r.ID)
				}
			}
			if len(ids) == 0 {
				return errors.New("nothing to delete: give ids, --name, --developer or --all")
			}
			n := s.Delete(ids...)
			if err := a.save(s.Records()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "delete records whose name contains this text")
	cmd.Flags().StringVar(&developer, "developer", "", "delete records of this developer")
	cmd.Flags().BoolVar(&all, "all", false, "delete every record")
	return cmd
}

func parseLevel(field, dir string) (sorting.Level, error) {
	f, err := browser.ParseField(field)
	if err != nil {
		return sorting.Level{}, err
	}
	d, err := sorting.ParseDirection(dir)
	if err != nil {
		return sorting.Level{}, err
	}
	return sorting.Level{Field: f, Direction: d}, nil
}

func newSortCmd(a *app) *cobra.Command {
	var by, dir, then, thenDir string
	var write bool
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Sort the dataset by one or two columns",
		Long: `Sorts by --by and optionally breaks ties with --then. Ids compare as
numbers, versions segment by segment, release dates as dates and everything
else case-insensitively. With --write the new order is saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			primary, err := parseLevel(by, dir)
			if err != nil {
				return err
			}
			spec := sorting.SortSpec{Primary: primary}
			if then != "" {
				secondary, err := parseLevel(then, thenDir)
				if err != nil {
					return err
				}
				spec.Secondary = &secondary
			}

			records, err := a.load()
			if err != nil {
				return err
			}
			s := a.newSession(records)
			if err := s.SortBy(spec); err != nil {
				return err
			}
			if write {
				if err := a.save(s.Records()); err != nil {
					return err
				}
			}
			a.printTable(cmd.OutOrStdout(), "Sorted by "+spec.String(), s.Records())
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "id", "primary sort column")
	cmd.Flags().StringVar(&dir, "dir", "asc", "primary direction (asc or desc)")
	cmd.Flags().StringVar(&then, "then", "", "secondary sort column")
	cmd.Flags().StringVar(&thenDir, "then-dir", "asc", "secondary direction (asc or desc)")
	cmd.Flags().BoolVar(&write, "write", false, "save the sorted order to the data file")
	return cmd
}

type reportOptions struct {
	typ, format       string
	developer, engine string
	out               string
	save              bool
}

func (a *app) runReport(cmd *cobra.Command, opts reportOptions) error {
	typ, err := report.ParseType(opts.typ)
	if err != nil {
		return err
	}
	kind, err := report.ParseKind(opts.format)
	if err != nil {
		return err
	}
	records, err := a.load()
	if err != nil {
		return err
	}
	rep, err := a.generator().Generate(records, typ, report.Filters{Developer: opts.developer, Engine: opts.engine})
	if err != nil {
		return err
	}
	body, err := report.FormatReport(rep, kind, report.Options{
		TrustedHTML: a.cfg.Report.TrustedHTML,
		Title:       "Browser report: " + string(typ),
	})
	if err != nil {
		return err
	}

	path := opts.out
	if path == "" && opts.save {
		name := fmt.Sprintf("report_%s_%s%s", typ, rep.GeneratedAt.Format("20060102_150405"), kind.Ext())
		path = filepath.Join(a.cfg.OutputDir, name)
	}
	if path == "" || path == "-" {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSuffix(body, "\n"))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	a.logger.Info("report written", zap.String("path", path), zap.String("type", string(typ)), zap.String("format", string(kind)), zap.Int("records", len(rep.Records)))
	fmt.Fprintf(cmd.OutOrStdout(), "report saved to %s\n", path)
	return nil
}

func addReportFlags(cmd *cobra.Command, opts *reportOptions) {
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: text, html or csv (default from config)")
	cmd.Flags().StringVar(&opts.developer, "developer", "", "only this developer (\"all\" for every one)")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "only this engine (\"all\" for every one)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.save, "save", false, "write to a timestamped file in the output directory")
}

func newReportCmd(a *app) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a summary, detailed, statistical, by_developer, by_engine or metrics report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.typ == "" {
				opts.typ = a.cfg.Report.DefaultType
			}
			if opts.format == "" {
				opts.format = a.cfg.Report.DefaultFormat
			}
			return a.runReport(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.typ, "type", "t", "", "report type (default from config)")
	addReportFlags(cmd, &opts)
	return cmd
}

func newMetricsCmd(a *app) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Run the full analysis: timeline, versions, market share and conclusions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.typ = string(report.Metrics)
			if opts.format == "" {
				opts.format = a.cfg.Report.DefaultFormat
			}
			return a.runReport(cmd, opts)
		},
	}
	addReportFlags(cmd, &opts)
	return cmd
}

func newShareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "share",
		Short: "Show the synthetic market share estimate",
		Long: `Weights every browser by its developer and release year and normalizes
the weights to 100%. The numbers illustrate the weighting only; they are
not measured usage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.load()
			if err != nil {
				return err
			}
			shares, err := a.cfg.Estimator().Estimate(records)
			if errors.Is(err, browser.ErrEmptyDataset) {
				fmt.Fprintln(cmd.OutOrStdout(), "no records")
				return nil
			}
			if err != nil {
				return err
			}
			writeShares(cmd.OutOrStdout(), shares)
			return nil
		},
	}
}

func writeShares(w io.Writer, shares stats.Shares) {
	for i, sh := range shares.Ranked() {
		fmt.Fprintf(w, "%2d. %-24s %5.1f%%\n", i+1, sh.Record.Name, sh.Percent)
	}
}

func newExportSQLiteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export-sqlite <path>",
		Short: "Write the dataset to a SQLite database file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.load()
			if err != nil {
				return err
			}
			if err := sqlite.Export(cmd.Context(), args[0], records); err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}
			a.logger.Info("sqlite export done", zap.String("path", args[0]), zap.Int("records", len(records)))
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "exported %d records to %s\n", len(records), args[0])

			counts, err := sqlite.CountBy(cmd.Context(), args[0], browser.FieldEngine)
			if err != nil {
				return fmt.Errorf("count %s: %w", args[0], err)
			}
			for _, c := range counts {
				fmt.Fprintf(w, "  %s: %d\n", c.Value, c.Count)
			}
			return nil
		},
	}
}

func newImportSQLiteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-sqlite <path>",
		Short: "Replace the data file with the records of a SQLite export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := sqlite.Import(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			if err := a.save(records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s\n", len(records), a.cfg.DataFile)
			return nil
		},
	}
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session over the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.load()
			if err != nil {
				return err
			}
			sh := &shell{app: a, sess: a.newSession(records), in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
			return sh.run(cmd.Context())
		},
	}
}

func newCompareCmd(a *app) *cobra.Command {
	var jsonOut string
	var failOnDiff bool
	cmd := &cobra.Command{
		Use:   "compare <candidate.csv>",
		Short: "Compare another CSV against the data file, aligned by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := a.load()
			if err != nil {
				return err
			}
			cand, err := csvio.Load(args[0])
			if err != nil {
				return err
			}
			res := compare.Datasets(ref, cand)
			w := cmd.OutOrStdout()

			if jsonOut != "" {
				payload, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return fmt.Errorf("json encode: %w", err)
				}
				if jsonOut == "-" {
					fmt.Fprintln(w, string(payload))
					return checkIdentical(res, failOnDiff)
				}
				if err := os.MkdirAll(filepath.Dir(jsonOut), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(jsonOut, append(payload, '\n'), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(w, "Wrote JSON report: %s\n", jsonOut)
			}

			fmt.Fprintf(w, "Status: %s\n", res.Status)
			fmt.Fprintf(w, "Matched rows: %d (reference %d, candidate %d)\n", res.MatchedRows, res.ReferenceRows, res.CandidateRows)
			fmt.Fprintf(w, "Coverage (reference/candidate): %.6f / %.6f\n", res.CoverageReference, res.CoverageCandidate)
			fmt.Fprintf(w, "Similarity: %.6f, with coverage: %.6f\n", res.Similarity, res.OverallScoreWithCoverage)
			if len(res.Added) > 0 {
				fmt.Fprintf(w, "Added ids: %s\n", strings.Join(res.Added, ", "))
			}
			if len(res.Removed) > 0 {
				fmt.Fprintf(w, "Removed ids: %s\n", strings.Join(res.Removed, ", "))
			}
			for _, ch := range res.Changed {
				fmt.Fprintf(w, "  id %s %s: %q -> %q\n", ch.ID, ch.Field, ch.Reference, ch.Candidate)
			}
			return checkIdentical(res, failOnDiff)
		},
	}
	cmd.Flags().StringVar(&jsonOut, "json", "", "also write the full result as JSON to this path (\"-\" for stdout only)")
	cmd.Flags().BoolVar(&failOnDiff, "fail-on-diff", false, "exit non-zero unless both files hold the same records")
	return cmd
}

func checkIdentical(res *compare.Result, fail bool) error {
	if fail && !res.Identical() {
		return fmt.Errorf("datasets differ: %d changed, %d added, %d removed", len(res.Changed), len(res.Added), len(res.Removed))
	}
	return nil
}

func newShuffleCmd(a *app) *cobra.Command {
	var seed int64
	var keep int
	var write bool
	cmd := &cobra.Command{
		Use:   "shuffle",
		Short: "Put the records in a reproducible random order",
		Long: `Shuffles the records with a seeded generator, e.g. to check that a sort
does not depend on the input order. With --write the result is saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.load()
			if err != nil {
				return err
			}
			out := sorting.Shuffle(records, seed, keep)
			if write {
				if err := a.save(out); err != nil {
					return err
				}
			}
			a.logger.Debug("shuffled", zap.Int64("seed", seed), zap.Int("records", len(out)))
			a.printTable(cmd.OutOrStdout(), fmt.Sprintf("Shuffled (seed %d)", seed), out)
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", sorting.DefaultShuffleSeed, "shuffle seed")
	cmd.Flags().IntVar(&keep, "sample-rows", 0, "if > 0, keep only this many records after shuffling")
	cmd.Flags().BoolVar(&write, "write", false, "save the shuffled order to the data file")
	return cmd
}
