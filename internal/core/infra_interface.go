package core

import (
	"context"
	"io"

	"github.com/RajKumaar123/langchain-rag-flask/internal/models"
)

// DbClient defines all persistence operations the services need. It
// abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByHash(ctx context.Context, userID, fileHash string) (*models.Document, error)
	GetDocumentByName(ctx context.Context, userID, fileName string) (*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status string, chunkCount int) error

	InsertChunks(ctx context.Context, chunks []models.IndexedChunk) error
	DeleteChunksByDocument(ctx context.Context, documentID string) error
	SearchChunks(ctx context.Context, userID string, queryVec []float32, limit int) ([]models.IndexedChunk, error)

	Close()
}

// ObjectClient defines interactions with S3 or any object storage, kept
// abstract so AWS can be swapped for MinIO, GCP, etc.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
