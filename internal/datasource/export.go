package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/hierview/pkg/metrics"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// ExportSQLite writes ds to a fresh SQLite database at path. Every node is
// one row in nodes; parent, edge and position place it in the tree and the
// payload column carries the node's own fields as JSON.
func ExportSQLite(ds *model.Dataset, path string) error {
	defer metrics.Timer(metrics.SQLiteExport)()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO nodes (parent, edge, position, depth, id, label, description, note, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	w := nodeWriter{stmt: stmt}
	for i := range ds.Hierarchy {
		if err := w.insert(&ds.Hierarchy[i], sql.NullInt64{}, edgeRoot, i, 0); err != nil {
			return err
		}
	}

	meta := map[string]string{"schema_version": strconv.Itoa(SchemaVersion)}
	if ds.Metadata != nil {
		b, err := json.Marshal(ds.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta["metadata"] = string(b)
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func createSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE nodes (
			node_id INTEGER PRIMARY KEY,
			parent INTEGER REFERENCES nodes(node_id),
			edge TEXT NOT NULL,
			position INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			id TEXT NOT NULL,
			label TEXT NOT NULL,
			description TEXT,
			note TEXT,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX idx_nodes_id ON nodes(id)`,
		`CREATE INDEX idx_nodes_parent ON nodes(parent, edge, position)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

type nodeWriter struct {
	stmt *sql.Stmt
}

func (w *nodeWriter) insert(n *model.HierarchyNode, parent sql.NullInt64, edge string, position, depth int) error {
	// The payload holds the node's own fields; children live in their own rows.
	own := *n
	own.Subclasses = nil
	own.Instances = nil
	payload, err := json.Marshal(&own)
	if err != nil {
		return fmt.Errorf("encode node %s: %w", n.ID, err)
	}

	res, err := w.stmt.Exec(parent, edge, position, depth, n.ID, n.Label,
		nullString(n.Description), nullString(n.Note), string(payload))
	if err != nil {
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}
	self := sql.NullInt64{Int64: rowid, Valid: true}

	for i := range n.Subclasses {
		if err := w.insert(&n.Subclasses[i], self, edgeSubclass, i, depth+1); err != nil {
			return err
		}
	}
	for i := range n.Instances {
		if err := w.insert(&n.Instances[i], self, edgeInstance, i, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
