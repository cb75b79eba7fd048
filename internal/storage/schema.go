package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/keshon/botport/internal/scan"
)

var createTable = regexp.MustCompile(`(?i)^\s*CREATE\s+TABLE\s+`)

// ensureIfNotExists turns a plain CREATE TABLE into CREATE TABLE IF NOT EXISTS.
func ensureIfNotExists(query string) string {
	if !createTable.MatchString(query) || strings.Contains(strings.ToUpper(query), "IF NOT EXISTS") {
		return query
	}
	return createTable.ReplaceAllString(query, "CREATE TABLE IF NOT EXISTS ")
}

type statement struct {
	label string
	sql   string
}

// InitSchema executes the statements declared in every *.json file below
// root and returns how many succeeded. A file declares either
// `"Database": ["sql", ...]` or `"database": {"table": "sql", ...}`.
// Unreadable files and failing statements are logged and skipped.
func (s *Store) InitSchema(ctx context.Context, root string) (int, error) {
	st, err := os.Stat(root)
	if err != nil {
		return 0, fmt.Errorf("schema directory: %w", err)
	}
	if !st.IsDir() {
		return 0, fmt.Errorf("schema path %s is not a directory", root)
	}
	files, err := scan.Files(root)
	if err != nil {
		return 0, fmt.Errorf("scan schema directory: %w", err)
	}

	var jsonFiles []string
	for _, f := range files {
		if strings.HasSuffix(f, ".json") {
			jsonFiles = append(jsonFiles, f)
		}
	}
	s.log.Info("Found JSON files to process", "count", len(jsonFiles))

	ok := 0
	for _, f := range jsonFiles {
		stmts, err := readSchemaFile(f)
		if err != nil {
			s.log.Warn("Could not parse JSON file, skipping", "path", f, "error", err)
			continue
		}
		for _, stmt := range stmts {
			if _, err := s.db.ExecContext(ctx, ensureIfNotExists(stmt.sql)); err != nil {
				if !strings.Contains(err.Error(), "already exists") {
					s.log.Error("Error executing schema statement", "path", f, "statement", stmt.label, "error", err)
				}
				continue
			}
			s.log.Debug("Schema statement executed", "path", f, "statement", stmt.label)
			ok++
		}
	}
	s.log.Info("Database initialization completed", "executed", ok)
	return ok, nil
}

func readSchemaFile(path string) ([]statement, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	if list, ok := doc["Database"]; ok {
		var queries []string
		if err := json.Unmarshal(list, &queries); err == nil {
			stmts := make([]statement, len(queries))
			for i, q := range queries {
				stmts[i] = statement{label: fmt.Sprintf("query %d", i+1), sql: q}
			}
			return stmts, nil
		}
	}
	if obj, ok := doc["database"]; ok {
		return orderedTables(obj)
	}
	return nil, nil
}

var errNotObject = errors.New(`"database" is not an object`)

// orderedTables decodes {"table": "sql"} keeping document order.
func orderedTables(raw json.RawMessage) ([]statement, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, errNotObject
	}
	var stmts []statement
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		table, _ := tok.(string)
		var sql string
		if err := dec.Decode(&sql); err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		stmts = append(stmts, statement{label: "table " + table, sql: sql})
	}
	return stmts, nil
}
