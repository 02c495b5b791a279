package embedding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/codelens-labs/codelens/internal/config"
	"github.com/codelens-labs/codelens/internal/provider"
)

// fakeEmbedder returns a fixed vector per call and can be told to fail for
// specific inputs.
type fakeEmbedder struct {
	mu      sync.Mutex
	calls   int
	inputs  []string
	failFor map[string]bool
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, texts...)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.failFor[t] {
			return nil, fmt.Errorf("simulated provider failure")
		}
		out[i] = []float32{float32(len(t)), 0.5}
	}
	return out, nil
}

func (f *fakeEmbedder) ModelID() string { return "fake-model" }

func testGenerator(e Embedder) *Generator {
	return NewGenerator(e, config.IngestConfig{
		BatchSize:     5,
		BatchDelay:    0,
		MaxFileBytes:  MaxFileBytes,
		MaxChunkBytes: 8000,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmbedFilesFiltersIneligible(t *testing.T) {
	fake := &fakeEmbedder{}
	g := testGenerator(fake)

	files := []provider.CodeFile{
		{Path: "a.py", Content: "print('hello')\n"},
		{Path: "b.bin", Content: "\x00\x01\x02binary"},
		{Path: "empty.txt", Content: ""},
	}

	rows, err := g.EmbedFiles(context.Background(), files, "p1", "https://git.example.com/p1", "c1", "main")
	if err != nil {
		t.Fatalf("EmbedFiles: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].FilePath != "a.py" {
		t.Errorf("FilePath = %q, want a.py", rows[0].FilePath)
	}
	if rows[0].Language != "python" {
		t.Errorf("Language = %q, want python", rows[0].Language)
	}
	if rows[0].CommitSHA != "c1" || rows[0].Branch != "main" {
		t.Errorf("commit/branch = %q/%q", rows[0].CommitSHA, rows[0].Branch)
	}
	if len(rows[0].Embedding) == 0 {
		t.Error("row has no embedding vector")
	}
}

func TestEmbedFilesDropsFailedItems(t *testing.T) {
	fake := &fakeEmbedder{failFor: map[string]bool{"bad content\n": true}}
	g := testGenerator(fake)

	files := []provider.CodeFile{
		{Path: "good.go", Content: "package good\n"},
		{Path: "bad.go", Content: "bad content\n"},
	}

	rows, err := g.EmbedFiles(context.Background(), files, "p1", "u", "c1", "main")
	if err != nil {
		t.Fatalf("EmbedFiles: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (failed item dropped, run not aborted)", len(rows))
	}
	if rows[0].FilePath != "good.go" {
		t.Errorf("surviving row = %q, want good.go", rows[0].FilePath)
	}
}

func TestEmbedFilesChunksOversizedContent(t *testing.T) {
	fake := &fakeEmbedder{}
	g := testGenerator(fake)

	var b strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "%-99d\n", i)
	}

	files := []provider.CodeFile{{Path: "big.go", Content: b.String()}}
	rows, err := g.EmbedFiles(context.Background(), files, "p1", "u", "c1", "main")
	if err != nil {
		t.Fatalf("EmbedFiles: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 chunks", len(rows))
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		if !strings.HasPrefix(row.FilePath, "big.go#chunk-") {
			t.Errorf("chunk path = %q, want big.go#chunk-N", row.FilePath)
		}
		if seen[row.FilePath] {
			t.Errorf("duplicate chunk key %q", row.FilePath)
		}
		seen[row.FilePath] = true
		if row.Language != "go" {
			t.Errorf("chunk language = %q, want go", row.Language)
		}
	}
}

func TestEmbedFilesBatchPartitioning(t *testing.T) {
	fake := &fakeEmbedder{}
	g := testGenerator(fake)

	files := make([]provider.CodeFile, 12)
	for i := range files {
		files[i] = provider.CodeFile{
			Path:    fmt.Sprintf("f%d.go", i),
			Content: fmt.Sprintf("package f%d\n", i),
		}
	}

	rows, err := g.EmbedFiles(context.Background(), files, "p1", "u", "c1", "main")
	if err != nil {
		t.Fatalf("EmbedFiles: %v", err)
	}
	if len(rows) != 12 {
		t.Errorf("got %d rows, want 12", len(rows))
	}
	// One embed call per unit: 12 files, none chunked.
	if fake.calls != 12 {
		t.Errorf("embedder called %d times, want 12", fake.calls)
	}
}

func TestEmbedFilesNoEmbedder(t *testing.T) {
	g := testGenerator(nil)
	_, err := g.EmbedFiles(context.Background(), []provider.CodeFile{{Path: "a.go", Content: "x\n"}}, "p", "u", "c", "b")
	if err == nil {
		t.Fatal("expected error when no embedder is configured")
	}
}

func TestEmbedFilesCancelledContext(t *testing.T) {
	fake := &fakeEmbedder{}
	g := NewGenerator(fake, config.IngestConfig{
		BatchSize:     1,
		BatchDelay:    1,
		MaxFileBytes:  MaxFileBytes,
		MaxChunkBytes: 8000,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []provider.CodeFile{
		{Path: "a.go", Content: "package a\n"},
		{Path: "b.go", Content: "package b\n"},
	}
	if _, err := g.EmbedFiles(ctx, files, "p", "u", "c", "b"); err == nil {
		t.Fatal("expected context error on cancelled run")
	}
}
