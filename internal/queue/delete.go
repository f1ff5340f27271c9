package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doctrace/citegraph/internal/storage"
	"github.com/doctrace/citegraph/internal/util"
	"github.com/doctrace/citegraph/pkg/logger"
	graphstore "github.com/doctrace/citegraph/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueueDeleteMsg is the payload of a delete_queue message.
type QueueDeleteMsg struct {
	DocumentID  string `json:"document_id"`
	ChunkSetKey string `json:"chunk_set_key"`
}

// ProcessDeleteMessage removes the stored graph of a document and the chunk
// set object it was built from.
func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(QueueDeleteMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if data.DocumentID == "" {
		return fmt.Errorf("delete message missing document_id")
	}

	store := graphstore.NewGraphDBStore(conn)
	if err := store.DeleteGraph(ctx, data.DocumentID); err != nil {
		return err
	}

	if data.ChunkSetKey != "" {
		err := util.RetryErr(3, func() error {
			return storage.DeleteFile(ctx, s3Client, data.ChunkSetKey)
		})
		if err != nil {
			logger.Warn("[Queue] Failed to delete chunk set object", "document_id", data.DocumentID, "key", data.ChunkSetKey, "err", err)
		}
	}

	logger.Info("[Queue] Graph deleted", "document_id", data.DocumentID)
	return nil
}
