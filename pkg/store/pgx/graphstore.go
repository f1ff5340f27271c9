package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/enrich"
	"github.com/doctrace/citegraph/pkg/graph"
	"github.com/doctrace/citegraph/pkg/logger"
	"github.com/doctrace/citegraph/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStore implements the GraphStore interface on PostgreSQL. The full
// graph document is stored as a jsonb payload alongside a normalized edge
// table used for entity lookups. Writes are serialized with a mutex so a
// rebuild and a concurrent rebuild of the same document cannot interleave.
type GraphDBStore struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewGraphDBStore creates a new GraphDBStore using an existing database
// connection. The connection is typically a pgxpool shared with the server.
func NewGraphDBStore(conn pgxIConn) *GraphDBStore {
	return &GraphDBStore{
		conn:   conn,
		dbLock: sync.Mutex{},
	}
}

// SaveGraph persists a finished citation graph. Any previously stored graph
// for the same document is replaced in the same transaction, so readers see
// either the old graph or the new one, never a mix.
func (s *GraphDBStore) SaveGraph(
	ctx context.Context,
	g *common.CitationGraph,
	enrichment map[string]enrich.Metadata,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	doc := graph.NewGraphDocument(g)

	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	chunkIDs, err := json.Marshal(g.ChunkIDs)
	if err != nil {
		return err
	}

	logger.Debug("[Store][SaveGraph] Replacing stored graph",
		"documentId", g.DocumentID,
		"chunks", len(g.ChunkIDs),
		"edges", len(g.Edges),
	)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := deleteGraphRows(ctx, tx, g.DocumentID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO graphs (document_id, payload, chunk_ids, total_chunks, total_citations, built_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		g.DocumentID, payload, chunkIDs, len(g.ChunkIDs), doc.CitationStats.TotalCitations, time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	batch := &pgxv5.Batch{}
	for seq, edge := range g.Edges {
		batch.Queue(`
			INSERT INTO graph_edges (document_id, edge_seq, from_chunk, entity_type, entity_id, mention_count)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			g.DocumentID, seq, edge.ChunkID, string(edge.Type), edge.EntityID, edge.MentionCount,
		)
	}
	for _, chunkID := range g.ChunkIDs {
		meta, ok := enrichment[chunkID]
		if !ok {
			continue
		}
		metaPayload, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO chunk_enrichment (document_id, chunk_id, payload)
			VALUES ($1, $2, $3)`,
			g.DocumentID, chunkID, metaPayload,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Debug("[Store][SaveGraph] Stored graph", "documentId", g.DocumentID)
	return nil
}

func deleteGraphRows(ctx context.Context, tx pgxv5.Tx, documentID string) error {
	for _, stmt := range []string{
		`DELETE FROM chunk_enrichment WHERE document_id = $1`,
		`DELETE FROM graph_edges WHERE document_id = $1`,
		`DELETE FROM graphs WHERE document_id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, documentID); err != nil {
			return err
		}
	}
	return nil
}

// GetGraph loads the stored graph document and the chunk id list for one
// document. Returns store.ErrNotFound when the document has no graph.
func (s *GraphDBStore) GetGraph(ctx context.Context, documentID string) (*store.GraphRecord, error) {
	var payload, chunkIDs []byte
	err := s.conn.QueryRow(ctx,
		`SELECT payload, chunk_ids FROM graphs WHERE document_id = $1`,
		documentID,
	).Scan(&payload, &chunkIDs)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	record := store.GraphRecord{}
	if err := json.Unmarshal(payload, &record.Document); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chunkIDs, &record.ChunkIDs); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetValidation returns only the validation report of a stored graph.
func (s *GraphDBStore) GetValidation(ctx context.Context, documentID string) (common.ValidationReport, error) {
	record, err := s.GetGraph(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return record.Document.Validation, nil
}

// GetEnrichment returns the stored enrichment metadata for one chunk.
func (s *GraphDBStore) GetEnrichment(ctx context.Context, documentID string, chunkID string) (*enrich.Metadata, error) {
	var payload []byte
	err := s.conn.QueryRow(ctx,
		`SELECT payload FROM chunk_enrichment WHERE document_id = $1 AND chunk_id = $2`,
		documentID, chunkID,
	).Scan(&payload)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	meta := enrich.Metadata{}
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// GetEntityChunks returns the chunk ids citing one entity, in the order the
// chunks were processed during the build. It reads the normalized edge table
// so callers do not need to load the whole graph payload.
func (s *GraphDBStore) GetEntityChunks(
	ctx context.Context,
	documentID string,
	entityType common.EntityType,
	entityID string,
) ([]string, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT from_chunk FROM graph_edges
		WHERE document_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY edge_seq`,
		documentID, string(entityType), entityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunkIDs := make([]string, 0)
	for rows.Next() {
		var chunkID string
		if err := rows.Scan(&chunkID); err != nil {
			return nil, err
		}
		chunkIDs = append(chunkIDs, chunkID)
	}
	return chunkIDs, rows.Err()
}

// DeleteGraph removes a stored graph and all of its derived rows.
func (s *GraphDBStore) DeleteGraph(ctx context.Context, documentID string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := deleteGraphRows(ctx, tx, documentID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListDocuments returns summary rows for all stored graphs, newest first.
func (s *GraphDBStore) ListDocuments(ctx context.Context) ([]store.DocumentInfo, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT document_id, total_chunks, total_citations, built_at
		FROM graphs
		ORDER BY built_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]store.DocumentInfo, 0)
	for rows.Next() {
		var info store.DocumentInfo
		var builtAt time.Time
		if err := rows.Scan(&info.DocumentID, &info.TotalChunks, &info.TotalCitations, &builtAt); err != nil {
			return nil, err
		}
		info.BuiltAt = builtAt.UTC().Format(time.RFC3339)
		docs = append(docs, info)
	}
	return docs, rows.Err()
}
