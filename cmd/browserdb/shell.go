package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"browserdb/internal/browser"
	"browserdb/internal/report"
	"browserdb/internal/session"
	"browserdb/internal/sorting"
)

const shellHelp = `commands:
  list                              print the working set
  sort <col> [asc|desc] [then <col> [asc|desc]]
  sortcol <col>                     sort by a column, alternating direction
  quick <name|date|developer>       ascending one-column sort
  restore                           back to load order
  search <text>                     names containing text
  filter <developer|all> [engine]   print matching records
  add name|developer|year|version|engine
  delete <id>...
  report <type> [text|html|csv]     types: summary detailed statistical by_developer by_engine metrics
  share                             synthetic market share
  clear                             drop every record
  reload                            discard changes and read the data file again
  save                              write the working set to the data file
  help
  quit`

type shell struct {
	app  *app
	sess *session.Session
	in   io.Reader
	out  io.Writer

	dirty bool
}

func (sh *shell) run(ctx context.Context) error {
	log := sh.sess.Logger()
	log.Info("shell started", zap.String("data", sh.app.cfg.DataFile), zap.Int("records", sh.sess.Data.Len()))
	fmt.Fprintf(sh.out, "browserdb shell: %d records from %s (type \"help\")\n", sh.sess.Data.Len(), sh.app.cfg.DataFile)

	sc := bufio.NewScanner(sh.in)
	for {
		fmt.Fprint(sh.out, "> ")
		if !sc.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		if cmd == "quit" || cmd == "exit" {
			break
		}
		if err := sh.exec(strings.ToLower(cmd), rest); err != nil {
			log.Debug("shell command failed", zap.String("command", cmd), zap.Error(err))
			fmt.Fprintln(sh.out, "error:", err)
		}
	}
	if sh.dirty {
		fmt.Fprintln(sh.out, "unsaved changes discarded")
	}
	log.Info("shell finished")
	return sc.Err()
}

func (sh *shell) exec(cmd, rest string) error {
	args := strings.Fields(rest)
	switch cmd {
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
	case "list", "ls":
		sh.app.printTable(sh.out, "", sh.sess.Records())
	case "sort":
		spec, err := parseSortArgs(args)
		if err != nil {
			return err
		}
		if err := sh.sess.SortBy(spec); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "sorted by %s\n", spec)
	case "sortcol":
		if len(args) != 1 {
			return fmt.Errorf("usage: sortcol <col>")
		}
		f, err := browser.ParseField(args[0])
		if err != nil {
			return err
		}
		dir, err := sh.sess.SortByColumn(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "sorted by %s %s\n", f, dir)
	case "quick":
		if err := sh.sess.QuickSort(rest); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "sorted by %s\n", rest)
	case "restore":
		sh.sess.Restore()
		fmt.Fprintln(sh.out, "original order restored")
	case "search":
		sh.app.printTable(sh.out, fmt.Sprintf("Names containing %q", rest), sh.sess.Search(rest))
	case "filter":
		var developer, engine string
		if len(args) > 0 {
			developer = args[0]
		}
		if len(args) > 1 {
			engine = args[1]
		}
		sh.app.printTable(sh.out, "", browser.Filter(sh.sess.Records(), developer, engine))
	case "add":
		parts := strings.Split(rest, "|")
		if len(parts) != 5 {
			return fmt.Errorf("usage: add name|developer|year|version|engine")
		}
		added, err := sh.sess.Add(browser.FromValues(append([]string{""}, parts...)))
		if err != nil {
			return err
		}
		sh.dirty = true
		fmt.Fprintf(sh.out, "added %s (id %s)\n", added.Name, added.ID)
	case "delete", "rm":
		if len(args) == 0 {
			return fmt.Errorf("usage: delete <id>...")
		}
		n := sh.sess.Delete(args...)
		sh.dirty = sh.dirty || n > 0
		fmt.Fprintf(sh.out, "deleted %d records\n", n)
	case "report":
		return sh.report(args)
	case "share":
		shares, err := sh.app.cfg.Estimator().Estimate(sh.sess.Records())
		if err != nil {
			return err
		}
		writeShares(sh.out, shares)
	case "clear":
		n := sh.sess.Clear()
		sh.dirty = sh.dirty || n > 0
		fmt.Fprintf(sh.out, "deleted %d records\n", n)
	case "reload":
		records, err := sh.app.load()
		if err != nil {
			return err
		}
		sh.sess.Load(records)
		sh.dirty = false
		fmt.Fprintf(sh.out, "reloaded %d records from %s\n", len(records), sh.app.cfg.DataFile)
	case "save":
		if err := sh.app.save(sh.sess.Records()); err != nil {
			return err
		}
		sh.dirty = false
		fmt.Fprintf(sh.out, "saved %d records to %s\n", sh.sess.Data.Len(), sh.app.cfg.DataFile)
	default:
		return fmt.Errorf("unknown command %q (try \"help\")", cmd)
	}
	return nil
}

func (sh *shell) report(args []string) error {
	typ := report.Type(sh.app.cfg.Report.DefaultType)
	kind := report.Kind(sh.app.cfg.Report.DefaultFormat)
	var err error
	if len(args) > 0 {
		if typ, err = report.ParseType(args[0]); err != nil {
			return err
		}
	}
	if len(args) > 1 {
		if kind, err = report.ParseKind(args[1]); err != nil {
			return err
		}
	}
	rep, err := sh.app.generator().Generate(sh.sess.Records(), typ, report.Filters{})
	if err != nil {
		return err
	}
	body, err := report.FormatReport(rep, kind, report.Options{TrustedHTML: sh.app.cfg.Report.TrustedHTML})
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, strings.TrimSuffix(body, "\n"))
	return nil
}

// parseSortArgs reads "<col> [dir] [then <col> [dir]]".
func parseSortArgs(args []string) (sorting.SortSpec, error) {
	var spec sorting.SortSpec
	if len(args) == 0 {
		return spec, fmt.Errorf("usage: sort <col> [asc|desc] [then <col> [asc|desc]]")
	}
	next := func() (sorting.Level, error) {
		field := args[0]
		args = args[1:]
		dir := "asc"
		if len(args) > 0 && args[0] != "then" {
			dir = args[0]
			args = args[1:]
		}
		return parseLevel(field, dir)
	}
	primary, err := next()
	if err != nil {
		return spec, err
	}
	spec.Primary = primary
	if len(args) == 0 {
		return spec, nil
	}
	if args[0] != "then" || len(args) < 2 {
		return spec, fmt.Errorf("expected \"then <col>\" after the primary sort")
	}
	args = args[1:]
	secondary, err := next()
	if err != nil {
		return spec, err
	}
	if len(args) > 0 {
		return spec, fmt.Errorf("unexpected %q", strings.Join(args, " "))
	}
	spec.Secondary = &secondary
	return spec, nil
}
