package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/db"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	"github.com/angelmondragon/vapevault-backend/pkg/migrate"
)

const usage = `usage: migrate [-dir DIR] COMMAND [ARG]

offline:
  create NAME   write an empty migration into DIR
  validate      check DIR and the embedded migrations

database:
  up            apply every pending migration
  down          roll back the latest migration
  to VERSION    migrate up or down to VERSION (YYYYMMDDHHMMSS)
  status        list migrations and when they were applied
`

// dbCommand runs against the configured database.
type dbCommand func(ctx context.Context, runner *migrate.Runner, arg string) error

var dbCommands = map[string]dbCommand{
	"up":     func(ctx context.Context, r *migrate.Runner, _ string) error { return r.Up(ctx) },
	"down":   func(ctx context.Context, r *migrate.Runner, _ string) error { return r.Down(ctx) },
	"to":     migrateTo,
	"status": printStatus,
}

func main() {
	dir := flag.String("dir", migrate.SourceDir, "migration source directory for create and validate")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cmd, arg := flag.Arg(0), flag.Arg(1)
	switch cmd {
	case "create":
		if arg == "" {
			exitUsage("create needs a NAME")
		}
		path, err := migrate.CreateSQLMigration(*dir, arg)
		exitOn(err)
		fmt.Println("created", path)
		return
	case "validate":
		exitOn(migrate.ValidateDir(*dir))
		exitOn(migrate.ValidateFS(migrate.Migrations()))
		fmt.Println("migrations ok")
		return
	}

	run, ok := dbCommands[cmd]
	if !ok {
		exitUsage(fmt.Sprintf("unknown command %q", cmd))
	}
	os.Exit(runAgainstDB(cmd, arg, run))
}

func runAgainstDB(cmd, arg string, run dbCommand) int {
	_ = godotenv.Load()
	cfg, err := config.Load()
	exitOn(err)

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		return 1
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err == nil {
		var runner *migrate.Runner
		if runner, err = migrate.NewRunner(sqlDB, logg); err == nil {
			err = run(ctx, runner, arg)
		}
	}
	if err != nil {
		logg.Error(ctx, "migrate.failed", err)
		return 1
	}
	logg.Info(ctx, "migrate.done")
	return 0
}

func migrateTo(ctx context.Context, runner *migrate.Runner, arg string) error {
	target, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || len(arg) != len("20060102150405") {
		return errors.New("to needs a VERSION formatted YYYYMMDDHHMMSS")
	}
	return runner.To(ctx, target)
}

func printStatus(ctx context.Context, runner *migrate.Runner, _ string) error {
	statuses, err := runner.Status(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, st := range statuses {
		applied := "-"
		if !st.AppliedAt.IsZero() {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", st.Source.Version, st.State, applied, st.Source.Path)
	}
	return w.Flush()
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func exitUsage(msg string) {
	fmt.Fprintf(os.Stderr, "migrate: %s\n\n%s", msg, usage)
	os.Exit(2)
}
