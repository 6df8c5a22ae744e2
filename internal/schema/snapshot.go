package schema

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
)

// Table describes one base table with its columns in ordinal order
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Hint is a bounded sample of distinct values for one column, used to
// ground filter predicates during SQL synthesis
type Hint struct {
	Table  string   `json:"table"`
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// Snapshot is the compact schema description captured once at startup.
// It is immutable for the process lifetime; a restart is the only refresh.
type Snapshot struct {
	Tables       []Table `json:"tables"`
	Hints        []Hint  `json:"hints"`
	SchemaString string  `json:"schema_string"`
	HintsString  string  `json:"hints_string"`
	Hash         string  `json:"hash"`
}

// Config controls snapshot loading
type Config struct {
	Namespace      string   // information_schema table_schema to enumerate
	HintColumns    []string // table.column entries to sample
	HintSampleSize int      // max distinct values per hint column
	ExcludeTables  []string // service-internal tables to skip
}

// Load builds the schema snapshot from information_schema. Any failure is
// returned to the caller, which treats it as fatal to startup.
func Load(ctx context.Context, db *sql.DB, cfg Config) (*Snapshot, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = "main"
	}

	if cfg.HintSampleSize <= 0 {
		cfg.HintSampleSize = 20
	}

	tables, err := loadTables(ctx, db, cfg)
	if err != nil {
		return nil, err
	}

	hints, err := loadHints(ctx, db, tables, cfg)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Tables:       tables,
		Hints:        hints,
		SchemaString: BuildSchemaString(tables),
		HintsString:  BuildHintsString(hints),
	}
	snapshot.Hash = ComputeHash(snapshot.SchemaString, snapshot.HintsString)

	return snapshot, nil
}

// loadTables enumerates base tables and their columns in ordinal order
func loadTables(ctx context.Context, db *sql.DB, cfg Config) ([]Table, error) {
	excluded := make(map[string]bool, len(cfg.ExcludeTables))
	for _, name := range cfg.ExcludeTables {
		excluded[name] = true
	}

	rows, err := db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`, cfg.Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate tables: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}

		if !excluded[name] {
			names = append(names, name)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table list: %w", err)
	}

	tables := make([]Table, 0, len(names))

	for _, name := range names {
		columns, err := loadColumns(ctx, db, cfg.Namespace, name)
		if err != nil {
			return nil, err
		}

		tables = append(tables, Table{Name: name, Columns: columns})
	}

	return tables, nil
}

// loadColumns lists the columns of one table ordered by ordinal position
func loadColumns(ctx context.Context, db *sql.DB, namespace, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, namespace, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}

		columns = append(columns, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns for %s: %w", table, err)
	}

	return columns, nil
}

// loadHints samples distinct values for the configured hint columns.
// Entries that do not match a snapshotted table/column are skipped; the
// snapshot, not the configuration, decides which identifiers are real.
func loadHints(ctx context.Context, db *sql.DB, tables []Table, cfg Config) ([]Hint, error) {
	columnSet := make(map[string]bool)
	for _, table := range tables {
		for _, column := range table.Columns {
			columnSet[table.Name+"."+column] = true
		}
	}

	var hints []Hint

	for _, entry := range cfg.HintColumns {
		if !columnSet[entry] {
			continue
		}

		parts := strings.SplitN(entry, ".", 2)
		table, column := parts[0], parts[1]

		// Identifiers come from the snapshot, so quoting them directly is safe
		query := fmt.Sprintf(
			`SELECT DISTINCT "%s" FROM "%s" WHERE "%s" IS NOT NULL ORDER BY 1 LIMIT %d`,
			column, table, column, cfg.HintSampleSize)

		values, err := sampleValues(ctx, db, query)
		if err != nil {
			return nil, fmt.Errorf("failed to sample hint values for %s: %w", entry, err)
		}

		hints = append(hints, Hint{Table: table, Column: column, Values: values})
	}

	return hints, nil
}

// sampleValues runs a sampling query and stringifies the result values
func sampleValues(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string

	for rows.Next() {
		var value any
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}

		switch v := value.(type) {
		case []byte:
			values = append(values, string(v))
		default:
			values = append(values, fmt.Sprintf("%v", v))
		}
	}

	return values, rows.Err()
}

// BuildSchemaString renders the compact table(col1, col2, ...) signatures
func BuildSchemaString(tables []Table) string {
	var sb strings.Builder

	for _, table := range tables {
		sb.WriteString(table.Name)
		sb.WriteString("(")
		sb.WriteString(strings.Join(table.Columns, ", "))
		sb.WriteString(")\n")
	}

	return sb.String()
}

// BuildHintsString renders the sampled values, one column per line
func BuildHintsString(hints []Hint) string {
	var sb strings.Builder

	for _, hint := range hints {
		sb.WriteString(fmt.Sprintf("%s.%s: %s\n", hint.Table, hint.Column, strings.Join(hint.Values, ", ")))
	}

	return sb.String()
}

// ComputeHash fingerprints the schema and hint strings
func ComputeHash(schemaString, hintsString string) string {
	sum := sha256.Sum256([]byte(schemaString + hintsString))
	return hex.EncodeToString(sum[:])
}
