package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/RajKumaar123/langchain-rag-flask/internal/core"
	"github.com/RajKumaar123/langchain-rag-flask/internal/extract"
	"github.com/RajKumaar123/langchain-rag-flask/internal/models"
)

// Index outcomes per file.
const (
	IndexStatusIndexed = "indexed" // first time this file was seen
	IndexStatusUpdated = "updated" // same name, new content: chunks replaced
	IndexStatusSkipped = "skipped" // identical bytes already indexed
)

// embedBatchSize bounds one BatchEmbedContents request.
const embedBatchSize = 64

// IndexResult reports what happened to one uploaded file.
type IndexResult struct {
	File   string `json:"file"`
	Chunks int    `json:"chunks"`
	Status string `json:"status"`
}

// IndexService turns an uploaded file into embedded chunk rows. Re-uploads
// of identical bytes are skipped; a changed file under a known name has its
// chunks replaced.
type IndexService struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	embedDim int
	storage  core.ObjectClient // nil disables archiving
	bucket   string

	uploadDir string
	opts      extract.Options
}

func NewIndexService(db core.DbClient, embedder core.EmbeddingProvider, embedDim int, storage core.ObjectClient, bucket, uploadDir string, opts extract.Options) *IndexService {
	return &IndexService{
		db:        db,
		embedder:  embedder,
		embedDim:  embedDim,
		storage:   storage,
		bucket:    bucket,
		uploadDir: uploadDir,
		opts:      opts,
	}
}

// checkDim rejects vectors whose width disagrees with the configured
// embedding dimension before they reach the database.
func (s *IndexService) checkDim(vecs [][]float32) error {
	if s.embedDim <= 0 {
		return nil
	}
	for _, v := range vecs {
		if len(v) != s.embedDim {
			return fmt.Errorf("embedding dimension %d, want %d", len(v), s.embedDim)
		}
	}
	return nil
}

// Add indexes one file already saved at savedPath. data is the original
// file bytes, used for hashing and the optional S3 archive.
func (s *IndexService) Add(ctx context.Context, userID, filename, savedPath string, data []byte) (*IndexResult, error) {
	sum := sha256.Sum256(data)
	fileHash := hex.EncodeToString(sum[:])

	if existing, err := s.db.GetDocumentByHash(ctx, userID, fileHash); err != nil {
		return nil, fmt.Errorf("hash lookup: %w", err)
	} else if existing != nil && existing.Status == models.DocStatusReady {
		return &IndexResult{File: filename, Chunks: existing.ChunkCount, Status: IndexStatusSkipped}, nil
	}

	status := IndexStatusIndexed
	docID := uuid.NewString()
	if prev, err := s.db.GetDocumentByName(ctx, userID, filename); err != nil {
		return nil, fmt.Errorf("name lookup: %w", err)
	} else if prev != nil {
		status = IndexStatusUpdated
		docID = prev.ID
		if err := s.db.DeleteChunksByDocument(ctx, prev.ID); err != nil {
			return nil, fmt.Errorf("drop stale chunks: %w", err)
		}
	}

	chunks, err := extract.LoadAndSplit(savedPath, s.uploadDir, s.opts)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}

	doc := &models.Document{
		ID:       docID,
		UserID:   userID,
		FileName: filename,
		FileHash: fileHash,
		Status:   models.DocStatusProcessing,
	}
	if s.storage != nil && s.bucket != "" {
		url, err := s.storage.UploadFile(ctx, s.bucket, s.objectKey(userID, docID, filename), data, "application/octet-stream")
		if err != nil {
			// Archiving is best effort; indexing proceeds.
			log.Printf("index: archive %s: %v", filename, err)
		} else {
			doc.StorageURL = url
		}
	}
	if err := s.db.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	rows, err := s.embedChunks(ctx, docID, chunks)
	if err != nil {
		_ = s.db.UpdateDocumentStatus(ctx, docID, models.DocStatusFailed, 0)
		return nil, err
	}
	if err := s.db.InsertChunks(ctx, rows); err != nil {
		_ = s.db.UpdateDocumentStatus(ctx, docID, models.DocStatusFailed, 0)
		return nil, fmt.Errorf("insert chunks: %w", err)
	}
	if err := s.db.UpdateDocumentStatus(ctx, docID, models.DocStatusReady, len(rows)); err != nil {
		return nil, err
	}

	return &IndexResult{File: filename, Chunks: len(rows), Status: status}, nil
}

// embedChunks embeds all chunks in bounded concurrent batches and maps them
// to persistence rows in their original order.
func (s *IndexService) embedChunks(ctx context.Context, docID string, chunks []extract.Chunk) ([]models.IndexedChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	vecs := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for start := 0; start < len(chunks); start += embedBatchSize {
		start := start
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = chunks[i].Content
			}
			batch, err := s.embedder.EmbedTexts(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
			}
			if err := s.checkDim(batch); err != nil {
				return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
			}
			copy(vecs[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now()
	rows := make([]models.IndexedChunk, len(chunks))
	for i, ch := range chunks {
		rows[i] = models.IndexedChunk{
			ID:           uuid.NewString(),
			DocumentID:   docID,
			Content:      ch.Content,
			Embedding:    vecs[i],
			Position:     i,
			ChunkType:    ch.Meta.Type,
			OrigFilename: ch.Meta.OrigFilename,
			Page:         ch.Meta.Page,
			ImagePath:    ch.Meta.ImagePath,
			FigureNo:     ch.Meta.FigureNo,
			Caption:      ch.Meta.Caption,
			CreatedAt:    now,
		}
	}
	return rows, nil
}

// Query embeds the question and returns the user's top-k nearest chunks.
func (s *IndexService) Query(ctx context.Context, userID, question string, topK int) ([]models.IndexedChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty query")
	}
	vecs, err := s.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := s.checkDim(vecs); err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.db.SearchChunks(ctx, userID, vecs[0], topK)
}

func (s *IndexService) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	return s.db.ListDocumentsByUser(ctx, userID)
}

// objectKey creates a consistent S3 key layout.
func (s *IndexService) objectKey(userID, docID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("users", userID, "documents", docID, filename)
}
