package datasource

import (
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/hierview/pkg/model"
)

// SchemaVersion is written to the meta table of exported databases.
const SchemaVersion = 1

// Edge values stored in the nodes table.
const (
	edgeRoot     = "root"
	edgeSubclass = "subclass"
	edgeInstance = "instance"
)

// SQLiteReader provides read access to a database written by ExportSQLite
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Read performance only; failures are harmless.
	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		_, _ = db.Exec(pragma)
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the meta table.
func (r *SQLiteReader) SchemaVersion() (int, error) {
	var v int
	err := r.db.QueryRow(`SELECT CAST(value AS INTEGER) FROM meta WHERE key = 'schema_version'`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// entry is a node being reassembled from its row and its children's rows.
type entry struct {
	node      model.HierarchyNode
	subs      []int64
	instances []int64
}

type link struct {
	parent, child int64
	edge          string
}

// LoadDataset reads the whole hierarchy back, in the order it was exported.
func (r *SQLiteReader) LoadDataset() (*model.Dataset, error) {
	if v, err := r.SchemaVersion(); err != nil {
		return nil, err
	} else if v != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", v)
	}

	rows, err := r.db.Query(`
		SELECT node_id, parent, edge, payload
		FROM nodes
		ORDER BY parent, edge, position
	`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	entries := make(map[int64]*entry)
	var roots []int64
	var links []link
	for rows.Next() {
		var (
			rowid   int64
			parent  sql.NullInt64
			edge    string
			payload string
		)
		if err := rows.Scan(&rowid, &parent, &edge, &payload); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		e := &entry{}
		if err := json.Unmarshal([]byte(payload), &e.node); err != nil {
			return nil, fmt.Errorf("decode node %d: %w", rowid, err)
		}
		entries[rowid] = e
		if !parent.Valid {
			roots = append(roots, rowid)
			continue
		}
		links = append(links, link{parent: parent.Int64, child: rowid, edge: edge})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	// Rows are sorted by position within (parent, edge), so appending keeps
	// sibling order.
	for _, o := range links {
		p, ok := entries[o.parent]
		if !ok {
			return nil, fmt.Errorf("node %d references missing parent %d", o.child, o.parent)
		}
		switch o.edge {
		case edgeSubclass:
			p.subs = append(p.subs, o.child)
		case edgeInstance:
			p.instances = append(p.instances, o.child)
		default:
			return nil, fmt.Errorf("node %d has unknown edge %q", o.child, o.edge)
		}
	}

	ds := &model.Dataset{Hierarchy: make([]model.HierarchyNode, 0, len(roots))}
	for _, id := range roots {
		ds.Hierarchy = append(ds.Hierarchy, assemble(entries, id))
	}

	var meta sql.NullString
	err = r.db.QueryRow(`SELECT value FROM meta WHERE key = 'metadata'`).Scan(&meta)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if meta.Valid && meta.String != "" {
		ds.Metadata = &model.DatasetMetadata{}
		if err := json.Unmarshal([]byte(meta.String), ds.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return ds, nil
}

func assemble(entries map[int64]*entry, id int64) model.HierarchyNode {
	e := entries[id]
	n := e.node
	for _, c := range e.subs {
		n.Subclasses = append(n.Subclasses, assemble(entries, c))
	}
	for _, c := range e.instances {
		n.Instances = append(n.Instances, assemble(entries, c))
	}
	return n
}
