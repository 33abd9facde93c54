package services

import (
	"context"
	"strings"
	"testing"

	"github.com/RajKumaar123/langchain-rag-flask/internal/extract"
	"github.com/RajKumaar123/langchain-rag-flask/internal/models"
)

type fakeLLM struct {
	prompts []string
	answer  string
}

func (f *fakeLLM) Generate(_ context.Context, _ string, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.answer == "" {
		return "an answer", nil
	}
	return f.answer, nil
}

func seedChunks(db *fakeDB, userID string) {
	page := 2
	db.docs["d1"] = &models.Document{ID: "d1", UserID: userID, FileName: "report.pdf", Status: models.DocStatusReady}
	db.chunks["d1"] = []models.IndexedChunk{
		{
			ID: "c1", DocumentID: "d1", Content: "Revenue rose 12% in Q3.",
			ChunkType: extract.TypeText, OrigFilename: "report.pdf", Page: &page, Position: 0,
		},
		{
			ID: "c2", DocumentID: "d1", Content: "[Figure 1] Quarterly revenue chart",
			ChunkType: extract.TypeImage, OrigFilename: "report.pdf", Page: &page, Position: 1,
			ImagePath: "report_assets/report_p2_1.png", FigureNo: 1, Caption: "Quarterly revenue chart",
		},
	}
}

func TestChatIncludesContextAndImages(t *testing.T) {
	db := newFakeDB()
	seedChunks(db, "u1")
	llm := &fakeLLM{}
	chat := NewChatService(NewIndexService(db, &fakeEmbedder{}, fakeDim, nil, "", t.TempDir(), extract.Options{}), llm, 4)

	resp, err := chat.Chat(context.Background(), "u1", "s1", "How did revenue do?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Answer != "an answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(resp.Sources))
	}
	if len(resp.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(resp.Images))
	}
	img := resp.Images[0]
	if img.Path != "report_assets/report_p2_1.png" || img.FigureNo != 1 {
		t.Errorf("image ref = %+v", img)
	}
	if img.Page == nil || *img.Page != 2 {
		t.Errorf("image page = %v", img.Page)
	}

	if len(llm.prompts) != 1 || !strings.Contains(llm.prompts[0], "Revenue rose 12%") {
		t.Errorf("prompt should carry retrieved context: %q", llm.prompts)
	}
	if !strings.Contains(llm.prompts[0], "report.pdf, page 2") {
		t.Errorf("prompt should cite file and page: %q", llm.prompts[0])
	}
}

func TestChatSessionMemory(t *testing.T) {
	db := newFakeDB()
	seedChunks(db, "u1")
	llm := &fakeLLM{answer: "first answer"}
	chat := NewChatService(NewIndexService(db, &fakeEmbedder{}, fakeDim, nil, "", t.TempDir(), extract.Options{}), llm, 4)

	if _, err := chat.Chat(context.Background(), "u1", "s1", "first question"); err != nil {
		t.Fatal(err)
	}
	if _, err := chat.Chat(context.Background(), "u1", "s1", "second question"); err != nil {
		t.Fatal(err)
	}

	second := llm.prompts[1]
	if !strings.Contains(second, "first question") || !strings.Contains(second, "first answer") {
		t.Errorf("second prompt should include prior turn: %q", second)
	}

	// Separate sessions do not share history.
	if _, err := chat.Chat(context.Background(), "u1", "other", "third question"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(llm.prompts[2], "first question") {
		t.Error("history leaked across sessions")
	}

	chat.Reset("u1", "s1")
	if _, err := chat.Chat(context.Background(), "u1", "s1", "fourth question"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(llm.prompts[3], "first question") {
		t.Error("history survived Reset")
	}
}

func TestChatHistoryCap(t *testing.T) {
	db := newFakeDB()
	seedChunks(db, "u1")
	llm := &fakeLLM{}
	chat := NewChatService(NewIndexService(db, &fakeEmbedder{}, fakeDim, nil, "", t.TempDir(), extract.Options{}), llm, 4)

	for i := 0; i < historyLimit+5; i++ {
		if _, err := chat.Chat(context.Background(), "u1", "s1", "q"); err != nil {
			t.Fatal(err)
		}
	}
	turns := chat.history("u1", "s1")
	if len(turns) != historyLimit {
		t.Errorf("history length = %d, want %d", len(turns), historyLimit)
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	chat := NewChatService(NewIndexService(newFakeDB(), &fakeEmbedder{}, fakeDim, nil, "", t.TempDir(), extract.Options{}), &fakeLLM{}, 4)
	if _, err := chat.Chat(context.Background(), "u1", "s1", "  "); err == nil {
		t.Fatal("expected error for empty question")
	}
}
