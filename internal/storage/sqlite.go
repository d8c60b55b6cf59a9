package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"drafter/internal/docir"
	"drafter/internal/version"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id TEXT PRIMARY KEY,
			doc_text TEXT,
			structure JSON,
			current_version_id TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS versions (
			version_id TEXT PRIMARY KEY,
			doc_id TEXT,
			parent_id TEXT,
			ts INTEGER,
			message TEXT,
			author TEXT,
			doc_text TEXT,
			structure JSON,
			tags JSON,
			branch TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS branches (
			doc_id TEXT,
			name TEXT,
			tip TEXT,
			PRIMARY KEY (doc_id, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_versions_doc ON versions(doc_id);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess *version.Session) error {
	if sess == nil {
		return fmt.Errorf("nil session")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	structure, err := marshalStructure(sess.DocStructure)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (doc_id, doc_text, structure, current_version_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			doc_text=excluded.doc_text,
			structure=excluded.structure,
			current_version_id=excluded.current_version_id
	`, sess.DocID, sess.DocText, structure, sess.CurrentVersionID); err != nil {
		return err
	}

	// Nodes are append-only, so plain upsert keeps history intact.
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO versions (version_id, doc_id, parent_id, ts, message, author, doc_text, structure, tags, branch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(version_id) DO UPDATE SET
			tags=excluded.tags
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, node := range sess.Versions {
		nodeStructure, err := marshalStructure(node.DocStructure)
		if err != nil {
			return err
		}
		tags, _ := json.Marshal(node.Tags)
		if _, err := stmt.ExecContext(ctx,
			node.VersionID, sess.DocID, node.ParentID, node.Timestamp.UnixMilli(),
			node.Message, node.Author, node.DocText, nodeStructure, tags, node.BranchName,
		); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM branches WHERE doc_id = ?`, sess.DocID); err != nil {
		return err
	}
	for name, tip := range sess.Branches {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO branches (doc_id, name, tip) VALUES (?, ?, ?)
		`, sess.DocID, name, tip); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadSession(ctx context.Context, docID string) (*version.Session, error) {
	sess := version.NewSession(docID)

	var structure []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT doc_text, structure, current_version_id FROM documents WHERE doc_id = ?
	`, docID).Scan(&sess.DocText, &structure, &sess.CurrentVersionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.DocStructure, err = unmarshalStructure(structure); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT version_id, parent_id, ts, message, author, doc_text, structure, tags, branch
		FROM versions WHERE doc_id = ?
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var node version.Node
		var ts int64
		var nodeStructure, tags []byte
		if err := rows.Scan(&node.VersionID, &node.ParentID, &ts, &node.Message,
			&node.Author, &node.DocText, &nodeStructure, &tags, &node.BranchName); err != nil {
			return nil, err
		}
		node.Timestamp = time.UnixMilli(ts)
		if node.DocStructure, err = unmarshalStructure(nodeStructure); err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &node.Tags); err != nil {
				return nil, err
			}
		}
		sess.Versions[node.VersionID] = &node
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	branchRows, err := s.db.QueryContext(ctx, `
		SELECT name, tip FROM branches WHERE doc_id = ?
	`, docID)
	if err != nil {
		return nil, err
	}
	defer branchRows.Close()
	for branchRows.Next() {
		var name, tip string
		if err := branchRows.Scan(&name, &tip); err != nil {
			return nil, err
		}
		sess.Branches[name] = tip
	}
	return sess, branchRows.Err()
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_id FROM documents ORDER BY doc_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func marshalStructure(doc *docir.Document) ([]byte, error) {
	if doc == nil {
		return nil, nil
	}
	return json.Marshal(doc)
}

func unmarshalStructure(raw []byte) (*docir.Document, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var doc docir.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
