package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/RajKumaar123/langchain-rag-flask/internal/core"
	"github.com/RajKumaar123/langchain-rag-flask/internal/extract"
	"github.com/RajKumaar123/langchain-rag-flask/internal/models"
)

const systemPrompt = `You are a helpful assistant that answers questions using only the provided document context.
If the context does not contain the answer, say so plainly instead of guessing.
When a context entry describes a figure, mention the figure in your answer where relevant.`

// historyLimit caps remembered turns per session.
const historyLimit = 10

type chatTurn struct {
	Question string
	Answer   string
}

// SourceRef points at the chunk an answer drew from.
type SourceRef struct {
	File    string `json:"file"`
	Page    *int   `json:"page,omitempty"`
	Snippet string `json:"snippet"`
}

// ImageRef surfaces an extracted figure relevant to the answer.
type ImageRef struct {
	Path     string `json:"path"`
	FigureNo int    `json:"figure_no"`
	Caption  string `json:"caption"`
	File     string `json:"file"`
	Page     *int   `json:"page,omitempty"`
}

type ChatResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
	Images  []ImageRef  `json:"images"`
}

// ChatService answers questions grounded in the user's indexed documents,
// with short in-memory conversation history per session.
type ChatService struct {
	index *IndexService
	llm   core.LLMProvider
	topK  int

	mu       sync.Mutex
	sessions map[string][]chatTurn
}

func NewChatService(index *IndexService, llm core.LLMProvider, topK int) *ChatService {
	return &ChatService{
		index:    index,
		llm:      llm,
		topK:     topK,
		sessions: make(map[string][]chatTurn),
	}
}

func (s *ChatService) Chat(ctx context.Context, userID, sessionID, question string) (*ChatResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}

	chunks, err := s.index.Query(ctx, userID, question, s.topK)
	if err != nil {
		return nil, err
	}

	prompt := s.buildPrompt(s.history(userID, sessionID), chunks, question)
	answer, err := s.llm.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	s.remember(userID, sessionID, chatTurn{Question: question, Answer: answer})

	resp := &ChatResponse{Answer: answer, Sources: []SourceRef{}, Images: []ImageRef{}}
	for _, ch := range chunks {
		resp.Sources = append(resp.Sources, SourceRef{
			File:    ch.OrigFilename,
			Page:    ch.Page,
			Snippet: snippet(ch.Content, 160),
		})
		if ch.ChunkType == extract.TypeImage && ch.ImagePath != "" {
			resp.Images = append(resp.Images, ImageRef{
				Path:     ch.ImagePath,
				FigureNo: ch.FigureNo,
				Caption:  ch.Caption,
				File:     ch.OrigFilename,
				Page:     ch.Page,
			})
		}
	}
	return resp, nil
}

// Reset drops the remembered history for one session.
func (s *ChatService) Reset(userID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(userID, sessionID))
}

func (s *ChatService) buildPrompt(history []chatTurn, chunks []models.IndexedChunk, question string) string {
	var b strings.Builder

	if len(chunks) > 0 {
		b.WriteString("Context:\n")
		for i, ch := range chunks {
			fmt.Fprintf(&b, "[%d] (%s", i+1, ch.OrigFilename)
			if ch.Page != nil {
				fmt.Fprintf(&b, ", page %d", *ch.Page)
			}
			b.WriteString(")\n")
			b.WriteString(ch.Content)
			b.WriteString("\n\n")
		}
	} else {
		b.WriteString("Context: no indexed documents matched this question.\n\n")
	}

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", t.Question, t.Answer)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}

func (s *ChatService) history(userID, sessionID string) []chatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.sessions[sessionKey(userID, sessionID)]
	out := make([]chatTurn, len(turns))
	copy(out, turns)
	return out
}

func (s *ChatService) remember(userID, sessionID string, turn chatTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(userID, sessionID)
	turns := append(s.sessions[key], turn)
	if len(turns) > historyLimit {
		turns = turns[len(turns)-historyLimit:]
	}
	s.sessions[key] = turns
}

func sessionKey(userID, sessionID string) string {
	if sessionID == "" {
		sessionID = "default"
	}
	return userID + "/" + sessionID
}

func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
