package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doctrace/citegraph/internal/storage"
	"github.com/doctrace/citegraph/internal/util"
	"github.com/doctrace/citegraph/pkg/common"
	"github.com/doctrace/citegraph/pkg/enrich"
	"github.com/doctrace/citegraph/pkg/graph"
	"github.com/doctrace/citegraph/pkg/leaselock"
	"github.com/doctrace/citegraph/pkg/logger"
	graphstore "github.com/doctrace/citegraph/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// QueueBuildMsg is the payload of a build_queue message. The chunk set has
// already been uploaded to object storage; the worker only receives its key.
type QueueBuildMsg struct {
	DocumentID  string `json:"document_id"`
	ChunkSetKey string `json:"chunk_set_key"`
	RunID       string `json:"run_id,omitempty"`
}

// GraphBuiltEvent is published on the pubsub exchange after a successful
// build so downstream consumers can react to fresh graphs.
type GraphBuiltEvent struct {
	DocumentID     string  `json:"document_id"`
	TotalChunks    int     `json:"total_chunks"`
	TotalCitations int     `json:"total_citations"`
	DurationMs     int64   `json:"duration_ms"`
	MatchRates     []Match `json:"match_rates"`
}

type Match struct {
	EntityType string  `json:"entity_type"`
	Rate       float64 `json:"rate"`
}

// ProcessBuildMessage handles one build_queue message: it fetches the chunk
// set from S3, builds and validates the citation graph, computes chunk
// enrichment, and replaces the stored graph for the document.
func ProcessBuildMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(QueueBuildMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if data.DocumentID == "" || data.ChunkSetKey == "" {
		return fmt.Errorf("build message missing document_id or chunk_set_key")
	}

	set, err := util.RetryWithContext(ctx, 3, func(ctx context.Context) (*common.ChunkSet, error) {
		return storage.GetChunkSet(ctx, s3Client, data.ChunkSetKey)
	})
	if err != nil {
		return err
	}
	if set.DocumentID != data.DocumentID {
		return fmt.Errorf("chunk set %s belongs to document %s, message names %s",
			data.ChunkSetKey, set.DocumentID, data.DocumentID)
	}

	// Upstream text can carry null bytes or broken UTF-8; strip it before it
	// reaches the extractor and the stored payloads.
	for i := range set.Chunks {
		set.Chunks[i].Text = util.SanitizePostgresText(set.Chunks[i].Text)
	}

	parallel := int(util.GetEnvNumeric("BUILD_PARALLEL", 4))
	client, err := graph.NewClient(graph.NewClientParams{
		ParallelChunks: parallel,
	})
	if err != nil {
		return err
	}

	start := time.Now()

	// Serialize concurrent rebuilds of the same document across workers.
	var g *common.CitationGraph
	lockClient := leaselock.New(conn)
	err = lockClient.WithLease(ctx, "document:"+set.DocumentID, leaselock.Options{
		TTL:         10 * time.Minute,
		RenewEvery:  4 * time.Minute,
		Wait:        true,
		TokenPrefix: fmt.Sprintf("graph-build/%s/", set.DocumentID),
	}, func(leaseCtx context.Context) error {
		var buildErr error
		g, buildErr = client.BuildGraph(leaseCtx, set.DocumentID, set.Chunks, set.Inventory)
		if buildErr != nil {
			return buildErr
		}

		threshold := int(util.GetEnvNumeric("DENSITY_THRESHOLD", 3))
		enricher := enrich.NewEnricher(g, threshold)
		metadata := enricher.EnrichAll()

		// SaveGraph replaces all rows in one transaction, so a retry after a
		// transient failure is safe.
		store := graphstore.NewGraphDBStore(conn)
		return util.RetryErrWithContext(leaseCtx, 3, func(ctx context.Context) error {
			return store.SaveGraph(ctx, g, metadata)
		})
	})
	if err != nil {
		return err
	}

	duration := time.Since(start)
	logger.Info("[Queue] Graph built and stored",
		"document_id", set.DocumentID,
		"run_id", data.RunID,
		"chunks", len(set.Chunks),
		"edges", len(g.Edges),
		"duration_ms", duration.Milliseconds(),
	)

	event := GraphBuiltEvent{
		DocumentID:     set.DocumentID,
		TotalChunks:    len(set.Chunks),
		TotalCitations: len(g.Edges),
		DurationMs:     duration.Milliseconds(),
	}
	for _, t := range common.EntityTypes() {
		event.MatchRates = append(event.MatchRates, Match{EntityType: string(t), Rate: g.Validation[t].MatchRate})
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := PublishTopic(ch, "graph.built."+set.DocumentID, payload); err != nil {
		logger.Warn("[Queue] Failed to publish graph built event", "document_id", set.DocumentID, "err", err)
	}

	return nil
}
