// Package relational stores decay events in a single SQLite table and reads
// the analysis columns back with a muon short-circuit.
package relational

import (
	"net/url"
	"strings"

	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver registered by modernc.org/sqlite
	DriverName = "sqlite"
	// TableName is the single table holding every event
	TableName = "events"

	dialectSQLite = "sqlite3"
	colRowID      = "rowid"
)

func init() {
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

// dataSource builds the SQLite URI for path, escaping characters that would
// otherwise start the query or fragment
func dataSource(path, mode string) string {
	u := url.URL{Scheme: "file", Path: path}
	if mode != "" {
		u.RawQuery = "mode=" + mode
	}
	return u.String()
}

func sqlType(k models.Kind) string {
	if k == models.KindInt32 {
		return "INTEGER"
	}
	return "REAL"
}

// createTableSQL declares the 26 columns in catalogue order
func createTableSQL() string {
	cols := models.Columns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c.Name + " " + sqlType(c.Kind)
	}
	return "CREATE TABLE " + TableName + " (" + strings.Join(defs, ", ") + ")"
}

// insertSQL is the named-parameter INSERT covering every column
func insertSQL() string {
	cols := models.Columns()
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		params[i] = ":" + c.Name
	}
	return "INSERT INTO " + TableName + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
}

// selectColumns are the analysis columns in positional order: for each slot
// PX, PY, PZ, ProbK, ProbPi, Charge, isMuon.
func selectColumns() []models.Column {
	return models.ColumnsFor(models.AnalysisFields)
}

// selectSQL builds the positional SELECT over selectColumns in insertion order
func selectSQL() (string, error) {
	cols := selectColumns()
	exprs := make([]interface{}, len(cols))
	for i, c := range cols {
		exprs[i] = c.Name
	}

	stmt := goqu.Dialect(dialectSQLite).
		From(TableName).
		Select(exprs...).
		Order(goqu.I(colRowID).Asc())

	query, _, err := stmt.ToSQL()
	if err != nil {
		return "", err
	}
	return query, nil
}
