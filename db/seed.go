package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"arcdata/models"

	"github.com/lib/pq"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var (
	// ErrUnknownTable is returned for record tables the schema does not define
	ErrUnknownTable = errors.New("unknown record table")
	// ErrMissingID is returned for records without a string id
	ErrMissingID = errors.New("record has no id")
)

var recordTables = map[string]bool{
	"items": true,
	"arcs":  true,
}

// SeedRecords inserts exported records into items or arcs. Rows whose id
// already exists are left untouched. Returns the number of rows inserted.
func (db *DB) SeedRecords(ctx context.Context, table string, records []json.RawMessage) (int64, error) {
	if !recordTables[table] {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, name, data) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`, pq.QuoteIdentifier(table))

	var inserted int64
	err := db.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for i, rec := range records {
			fields := gjson.GetManyBytes(rec, "id", "name")
			id := fields[0]
			if id.Type != gjson.String || id.Str == "" {
				return fmt.Errorf("%w: %s record %d", ErrMissingID, table, i)
			}

			n, err := exec(ctx, stmt, id.Str, fields[1].String(), string(rec))
			if err != nil {
				return fmt.Errorf("failed to insert %s record %q: %w", table, id.Str, err)
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	db.log.Info("Seeded records", zap.String("table", table), zap.Int("records", len(records)), zap.Int64("inserted", inserted))
	return inserted, nil
}

// SeedWorkbenches inserts one row per station level, Scrappy included.
// Rows are keyed by station name and the level's position on the page.
func (db *DB) SeedWorkbenches(ctx context.Context, doc *models.WorkbenchDocument) (int64, error) {
	const query = `INSERT INTO workbench_levels (workbench, position, level, requirements, crafts, rates)
		VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (workbench, position) DO NOTHING`

	var inserted int64
	err := db.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for _, wb := range doc.Workbenches {
			for i, lvl := range wb.Levels {
				var level any
				if lvl.Level != nil {
					level = strconv.Itoa(*lvl.Level)
				}
				n, err := insertLevel(ctx, stmt, wb.Name, i, level, lvl.Requirements, lvl.Crafts, nil)
				if err != nil {
					return err
				}
				inserted += n
			}
		}

		for i, lvl := range doc.Scrappy.Levels {
			n, err := insertLevel(ctx, stmt, doc.Scrappy.Name, i, lvl.Level, lvl.Requirements, []string{}, lvl.Rates)
			if err != nil {
				return err
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	db.log.Info("Seeded workbench levels", zap.Int("workbenches", len(doc.Workbenches)), zap.Int64("inserted", inserted))
	return inserted, nil
}

// inTx prepares query inside a transaction and hands it to fn.
// The transaction commits only if fn succeeds.
func (db *DB) inTx(ctx context.Context, query string, fn func(stmt *sql.Stmt) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	if err := fn(stmt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func exec(ctx context.Context, stmt *sql.Stmt, args ...any) (int64, error) {
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func insertLevel(ctx context.Context, stmt *sql.Stmt, workbench string, position int, level any, requirements []models.Requirement, crafts []string, rates any) (int64, error) {
	if requirements == nil {
		requirements = []models.Requirement{}
	}
	if crafts == nil {
		crafts = []string{}
	}

	reqJSON, err := json.Marshal(requirements)
	if err != nil {
		return 0, fmt.Errorf("failed to encode requirements for %s level %d: %w", workbench, position, err)
	}
	craftsJSON, err := json.Marshal(crafts)
	if err != nil {
		return 0, fmt.Errorf("failed to encode crafts for %s level %d: %w", workbench, position, err)
	}

	n, err := exec(ctx, stmt, workbench, position, level, string(reqJSON), string(craftsJSON), rates)
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s level %d: %w", workbench, position, err)
	}
	return n, nil
}
