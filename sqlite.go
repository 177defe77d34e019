package imdbtsv

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/nao1215/imdbtsv/domain/model"
)

const (
	// DefaultTableName is the table OpenSQLite loads titles into
	DefaultTableName = "title_basics"
	// sqliteDriverName is the database/sql name of the SQLite driver
	sqliteDriverName = "sqlite"
)

// OpenSQLite returns an in-memory SQLite database holding titles in table
// DefaultTableName. Every column is TEXT; the null marker becomes SQL NULL.
//
// Example:
//
//	db, err := imdbtsv.OpenSQLite(ctx, titles)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := db.QueryContext(ctx, `SELECT titleType, COUNT(*) FROM title_basics GROUP BY titleType`)
func OpenSQLite(ctx context.Context, titles *Titles) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, ":memory:")
	if err != nil {
		return nil, NewErrorContext("open sqlite", "").Error(err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if err := LoadIntoDB(ctx, db, DefaultTableName, titles); err != nil {
		_ = db.Close() // Ignore close error, the load error is returned
		return nil, err
	}
	return db, nil
}

// LoadIntoDB creates tableName in db and inserts every title in one transaction.
// The table must not exist yet.
func LoadIntoDB(ctx context.Context, db *sql.DB, tableName string, titles *Titles) error {
	name := NewTableName(tableName).Sanitize().String()
	ec := NewErrorContext("load titles", "").WithTable(name)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ec.Error(err)
	}
	defer func() {
		_ = tx.Rollback() // No-op after a successful commit
	}()

	if _, err := tx.ExecContext(ctx, buildCreateTableQuery(name)); err != nil {
		return ec.WithDetails("create table").Error(err)
	}

	stmt, err := tx.PrepareContext(ctx, buildInsertQuery(name))
	if err != nil {
		return ec.WithDetails("prepare insert").Error(err)
	}
	defer stmt.Close()

	args := make([]any, model.ColumnCount)
	for title := range titles.All() {
		for i := range args {
			col := model.Column(i)
			if title.IsNull(col) {
				args[i] = nil
			} else {
				args[i] = title.Field(col)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return ec.WithDetails("insert %s", title.TConst()).Error(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ec.WithDetails("commit").Error(err)
	}
	return nil
}

func buildCreateTableQuery(tableName string) string {
	columns := make([]string, 0, model.ColumnCount)
	for _, name := range model.Columns() {
		columns = append(columns, fmt.Sprintf(`"%s" TEXT`, name))
	}
	return fmt.Sprintf(`CREATE TABLE "%s" (%s)`, tableName, strings.Join(columns, ", "))
}

func buildInsertQuery(tableName string) string {
	placeholders := make([]string, model.ColumnCount)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(`INSERT INTO "%s" VALUES (%s)`, tableName, strings.Join(placeholders, ", "))
}
