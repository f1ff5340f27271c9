package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/doctrace/citegraph/internal/util"
	"github.com/doctrace/citegraph/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client
}

func GetFile(ctx context.Context, client *s3.Client, key string) ([]byte, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file from S3: %v", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read file contents: %v", err)
	}

	return buf.Bytes(), nil
}

func PutFile(ctx context.Context, client *s3.Client, key string, contentType string, file io.Reader) error {
	bucket := util.GetEnv("AWS_BUCKET")
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file to S3: %v", err)
	}
	return nil
}

func DeleteFile(ctx context.Context, client *s3.Client, key string) error {
	bucket := util.GetEnv("AWS_BUCKET")
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %v", err)
	}
	return nil
}

// GetChunkSet fetches and decodes a chunk-set JSON object. The object holds
// the pre-chunked document text and the entity inventory produced upstream.
func GetChunkSet(ctx context.Context, client *s3.Client, key string) (*common.ChunkSet, error) {
	data, err := GetFile(ctx, client, key)
	if err != nil {
		return nil, err
	}

	set := common.ChunkSet{}
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode chunk set %s: %v", key, err)
	}
	return &set, nil
}

// PutChunkSet uploads a chunk set under a deterministic per-document key and
// returns that key for the build message.
func PutChunkSet(ctx context.Context, client *s3.Client, set *common.ChunkSet) (string, error) {
	data, err := json.Marshal(set)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("chunksets/%s.json", set.DocumentID)
	if err := PutFile(ctx, client, key, "application/json", bytes.NewReader(data)); err != nil {
		return "", err
	}
	return key, nil
}
