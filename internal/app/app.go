package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/RajKumaar123/langchain-rag-flask/internal/config"
	"github.com/RajKumaar123/langchain-rag-flask/internal/core"
	db "github.com/RajKumaar123/langchain-rag-flask/internal/core/database"
	"github.com/RajKumaar123/langchain-rag-flask/internal/core/llm"
	objectclient "github.com/RajKumaar123/langchain-rag-flask/internal/core/object-client"
	"github.com/RajKumaar123/langchain-rag-flask/internal/extract"
	"github.com/RajKumaar123/langchain-rag-flask/internal/services"
)

type App struct {
	DBClient core.DbClient
	Embedder *llm.GeminiEmbedder
	LLM      *llm.GeminiLLM
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	// Object storage is optional; without a bucket, originals stay on disk
	// only.
	var objClient core.ObjectClient
	if cfg.BucketName != "" {
		objClient, err = objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			dbClient.Close()
			return nil, fmt.Errorf("object client: %w", err)
		}
	}

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		dbClient.Close()
		return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel, cfg.FallbackModel, cfg.Temperature, cfg.MaxTokens)
	if err != nil {
		dbClient.Close()
		return nil, fmt.Errorf("couldn't initialize the llm: %w", err)
	}

	opts := extract.Options{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap}
	indexSvc := services.NewIndexService(dbClient, embedder, cfg.EmbedDim, objClient, cfg.BucketName, cfg.UploadDir, opts)
	chatSvc := services.NewChatService(indexSvc, llmProvider, cfg.TopK)
	userSvc := services.NewUserService(dbClient)

	server := NewServer(cfg, userSvc, indexSvc, chatSvc)

	return &App{DBClient: dbClient, Embedder: embedder, LLM: llmProvider, Server: server}, nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		a.DBClient.Close()
	}
}
