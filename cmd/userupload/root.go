package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/JonMunkholm/userupload/internal/admin"
	"github.com/JonMunkholm/userupload/internal/config"
	"github.com/JonMunkholm/userupload/internal/core"
	"github.com/JonMunkholm/userupload/internal/database"
	"github.com/JonMunkholm/userupload/internal/logging"
	"github.com/spf13/cobra"
)

// closeTimeout bounds closing the database connection on the way out.
const closeTimeout = 5 * time.Second

type options struct {
	file        string
	createTable bool
	dryRun      bool
	user        string
	password    string
	host        string
	port        int
	database    string
	encoding    string
	failedOut   string
	help        bool
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "userupload --file users.csv [-u user] [-p password] [-h host]",
		Short: "Load user records from a CSV file into the users table",
		Long: "Reads a CSV file with name, surname and email columns, normalizes and\n" +
			"validates each row, and inserts valid rows into the users table.\n" +
			"Database settings may also come from DB_* environment variables or a .env file.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagOverrides(cmd, opts))
			if err != nil {
				return err
			}

			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			return run(cmd.Context(), cfg, stdout)
		},
	}
	cmd.SetOut(stdout)

	f := cmd.Flags()
	f.SortFlags = false
	f.StringVar(&opts.file, "file", "", "Path to CSV file to process")
	f.BoolVar(&opts.createTable, "create_table", false, "Create/rebuild the users table and exit")
	f.BoolVar(&opts.dryRun, "dry_run", false, "Validate rows without inserting anything or connecting to the database")
	f.StringVarP(&opts.user, "user", "u", "", "Database username")
	f.StringVarP(&opts.password, "password", "p", "", "Database password")
	f.StringVarP(&opts.host, "host", "h", "", "Database host (default localhost)")
	f.IntVar(&opts.port, "port", 0, "Database port (default 5432)")
	f.StringVar(&opts.database, "database", "", "Database name (default users_db)")
	f.StringVar(&opts.encoding, "encoding", "", "Input encoding: utf-8, latin1, windows-1252, windows-1251")
	f.StringVar(&opts.failedOut, "failed_out", "", "Write skipped rows with their reason to this CSV file")
	// -h is the host, so help gets no shorthand.
	f.BoolVar(&opts.help, "help", false, "Display this help message")

	return cmd
}

// flagOverrides applies the flags the user actually set on top of the
// environment-derived config.
func flagOverrides(cmd *cobra.Command, opts options) config.Override {
	changed := cmd.Flags().Changed
	return func(c *config.Config) {
		c.Upload.File = opts.file
		c.Upload.CreateTable = opts.createTable
		c.Upload.DryRun = opts.dryRun

		if changed("user") {
			c.Database.User = opts.user
		}
		if changed("password") {
			c.Database.Password = opts.password
		}
		if changed("host") {
			c.Database.Host = opts.host
		}
		if changed("port") {
			c.Database.Port = opts.port
		}
		if changed("database") {
			c.Database.Name = opts.database
		}
		if changed("encoding") {
			c.Upload.Encoding = opts.encoding
		}
		if changed("failed_out") {
			c.Upload.FailedOut = opts.failedOut
		}
	}
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	ctx, _ = logging.WithRunID(ctx)
	logging.FromContext(ctx).Info("configuration loaded", "config", cfg.String())

	if cfg.Upload.CreateTable {
		return createTable(ctx, cfg, stdout)
	}
	return load(ctx, cfg, stdout)
}

func createTable(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	conn, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeConn(conn)

	if err := admin.RebuildUsersTable(ctx, conn); err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Users table created/rebuilt successfully.")
	return nil
}

func load(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	logger := logging.WithFields(ctx, "file", cfg.Upload.File)

	f, err := os.Open(cfg.Upload.File)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("CSV file '%s' does not exist", cfg.Upload.File)
	}
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	opts := core.Options{
		Mode:          core.ModeLive,
		Encoding:      cfg.Upload.Encoding,
		InsertTimeout: cfg.Upload.InsertTimeout,
	}

	var store core.UserWriter
	if cfg.Upload.DryRun {
		opts.Mode = core.ModeDryRun
	} else {
		conn, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer closeConn(conn)

		q := database.New(conn)
		if err := admin.CheckUsersTable(ctx, q); err != nil {
			return err
		}
		store = q
	}

	if cfg.Upload.FailedOut != "" {
		out := &lazyFile{path: cfg.Upload.FailedOut}
		defer func() {
			if err := out.Close(); err != nil {
				logger.Warn("failed to close failed-rows file", "error", err)
			}
		}()
		opts.FailedOut = out
	}

	summary, err := core.NewLoader(store, stdout, opts).Run(ctx, f)
	if err != nil {
		if summary.RowsSeen > 0 {
			logger.Error("load aborted",
				"rows", summary.RowsSeen,
				"inserted", summary.Inserted,
				"errors", summary.Errors,
				"connection_lost", core.IsFatal(err),
			)
		}
		return err
	}
	return nil
}

// lazyFile creates path on the first Write, so a run that fails before any
// report row is flushed leaves an existing file untouched.
type lazyFile struct {
	path string
	f    *os.File
}

func (l *lazyFile) Write(p []byte) (int, error) {
	if l.f == nil {
		f, err := os.Create(l.path)
		if err != nil {
			return 0, fmt.Errorf("failed to create failed-rows file: %w", err)
		}
		l.f = f
	}
	return l.f.Write(p)
}

func (l *lazyFile) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}

type closer interface {
	Close(ctx context.Context) error
}

func closeConn(c closer) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		logging.FromContext(ctx).Warn("failed to close database connection", "error", err)
	}
}
