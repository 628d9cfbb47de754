package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"arcdata/db"
	"arcdata/exporter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(a *app) *cobra.Command {
	var dsn string
	paths := map[string]*string{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Loads exported items, arcs and workbenches into Postgres, keeping rows that already exist.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dsn == "" {
				dsn = a.cfg.Database.DSN
			}

			// Unset paths default to the configured outputs; those are
			// skipped when missing, explicit ones are not.
			var jobs []seedJob
			for _, name := range []string{"items", "arcs", "workbenches"} {
				path, explicit := *paths[name], cmd.Flags().Changed(name)
				if !explicit {
					if name == "workbenches" {
						path = a.cfg.Wiki.Output
					} else if src, ok := a.cfg.Sources[name]; ok {
						path = src.Output
					} else {
						continue
					}
				}
				skip, err := checkSeedFile(path, explicit)
				if err != nil {
					return err
				}
				if skip {
					a.log.Warn("Export file not found, skipping", zap.String("table", name), zap.String("path", path))
					continue
				}
				jobs = append(jobs, seedJob{table: name, path: path})
			}
			if len(jobs) == 0 {
				fmt.Fprintln(a.out, "Nothing to seed")
				return nil
			}

			database, err := db.NewDB(ctx, dsn, a.log)
			if err != nil {
				return err
			}
			defer database.Close()

			for _, j := range jobs {
				if err := j.run(ctx, database, a.out); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string (defaults to database.dsn, then DATABASE_URL)")
	for _, name := range []string{"items", "arcs"} {
		paths[name] = cmd.Flags().String(name, "", fmt.Sprintf("Path to the %s export (defaults to the source's output)", name))
	}
	paths["workbenches"] = cmd.Flags().String("workbenches", "", "Path to the workbench export (defaults to wiki.output)")
	return cmd
}

type seedJob struct {
	table, path string
}

func (j seedJob) run(ctx context.Context, database *db.DB, out io.Writer) error {
	if j.table == "workbenches" {
		doc, err := exporter.ReadWorkbenches(j.path)
		if err != nil {
			return err
		}
		n, err := database.SeedWorkbenches(ctx, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded workbench levels: %d inserted\n", n)
		return nil
	}

	export, err := exporter.ReadAggregate(j.path)
	if err != nil {
		return err
	}
	n, err := database.SeedRecords(ctx, j.table, export.Data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %s: %d of %d records inserted\n", j.table, n, len(export.Data))
	return nil
}

// checkSeedFile reports whether path should be skipped. Only files the user
// did not name explicitly may be missing.
func checkSeedFile(path string, explicit bool) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return true, nil
	default:
		return false, fmt.Errorf("failed to open export %s: %w", path, err)
	}
}
