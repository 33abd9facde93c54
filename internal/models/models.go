package models

import (
	"time"
)

// Document status lifecycle.
const (
	DocStatusProcessing = "processing"
	DocStatusReady      = "ready"
	DocStatusFailed     = "failed"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Document represents one uploaded file and its indexing state. FileHash is
// the sha256 of the original bytes and drives re-upload detection.
type Document struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FileHash   string    `db:"file_hash" json:"file_hash"`
	StorageURL string    `db:"storage_url" json:"storage_url,omitempty"` // optional S3 archive URL
	Status     string    `db:"status" json:"status"`                     // processing | ready | failed
	ChunkCount int       `db:"chunk_count" json:"chunk_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// IndexedChunk is one embedded chunk row. The metadata columns mirror the
// extraction contract: text chunks carry page provenance where the source
// format has it, image chunks additionally carry path, figure number and
// caption.
type IndexedChunk struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	Content    string    `db:"content" json:"content"`
	Embedding  []float32 `db:"embedding" json:"-"` // pgvector column
	Position   int       `db:"position" json:"position"`

	ChunkType    string `db:"chunk_type" json:"type"`
	OrigFilename string `db:"orig_filename" json:"orig_filename"`
	Page         *int   `db:"page" json:"page,omitempty"`
	ImagePath    string `db:"image_path" json:"image_path,omitempty"`
	FigureNo     int    `db:"figure_no" json:"figure_no,omitempty"`
	Caption      string `db:"caption" json:"caption,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
