package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/bookdigest/internal/completion"
	"github.com/pdiddy/bookdigest/pkg/types"
)

// mockClient returns a fixed result and records calls.
type mockClient struct {
	content *string
	err     error
	calls   int
	prompts [][]completion.Message
}

func (m *mockClient) Complete(_ context.Context, _ string, messages []completion.Message) (completion.Result, error) {
	m.calls++
	m.prompts = append(m.prompts, messages)
	if m.err != nil {
		return completion.Result{}, m.err
	}
	return completion.Result{Content: m.content}, nil
}

func strPtr(s string) *string { return &s }

func TestSummarizeEmptyBaseShortCircuits(t *testing.T) {
	client := &mockClient{content: strPtr("should not be called")}
	e := &Emitter{Client: client, Model: "m", DocName: "book.pdf"}

	got, err := e.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("summary = %q, want empty", got)
	}
	if client.calls != 0 {
		t.Errorf("endpoint called %d times for empty base, want 0", client.calls)
	}
}

func TestSummarizeJoinsKnowledge(t *testing.T) {
	client := &mockClient{content: strPtr("## Summary\n\nPoints.")}
	e := &Emitter{Client: client, Model: "m", DocName: "book.pdf"}

	got, err := e.Summarize(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "## Summary\n\nPoints." {
		t.Errorf("summary = %q", got)
	}

	if client.calls != 1 {
		t.Fatalf("endpoint called %d times, want 1", client.calls)
	}
	msgs := client.prompts[0]
	if len(msgs) != 2 || msgs[0].Role != completion.RoleSystem || msgs[1].Role != completion.RoleUser {
		t.Fatalf("unexpected message shape: %+v", msgs)
	}
	if !strings.Contains(msgs[1].Content, "first\nsecond") {
		t.Errorf("user turn missing newline-joined knowledge: %q", msgs[1].Content)
	}
}

func TestSummarizeNullContent(t *testing.T) {
	client := &mockClient{content: nil}
	e := &Emitter{Client: client, Model: "m", DocName: "book.pdf"}

	got, err := e.Summarize(context.Background(), []string{"point"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("summary = %q, want empty for null content", got)
	}
}

func TestSummarizePropagatesError(t *testing.T) {
	client := &mockClient{err: fmt.Errorf("boom")}
	e := &Emitter{Client: client, Model: "m", DocName: "book.pdf"}

	if _, err := e.Summarize(context.Background(), []string{"point"}); err == nil {
		t.Error("expected error from failing client")
	}
}

func TestSaveEmptyIsNoOp(t *testing.T) {
	dir := t.TempDir()
	e := &Emitter{DocName: "book.pdf", BaseDir: dir}

	path, err := e.Save("", types.SummaryFinal)
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}

	if _, err := os.Stat(filepath.Join(dir, summariesDir)); !os.IsNotExist(err) {
		t.Error("Save with empty summary should not create the summaries directory")
	}
}

func TestSaveWritesArtifact(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)
	old := now
	now = func() time.Time { return fixed }
	defer func() { now = old }()

	dir := t.TempDir()
	e := &Emitter{DocName: "meditations.pdf", BaseDir: dir}

	path, err := e.Save("## Key Themes\n\n- discipline", types.SummaryInterval)
	if err != nil {
		t.Fatal(err)
	}

	wantName := fmt.Sprintf("meditations_interval_%d.md", fixed.UnixMilli())
	if filepath.Base(path) != wantName {
		t.Errorf("artifact name = %q, want %q", filepath.Base(path), wantName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		"# Book Analysis: meditations.pdf",
		"Generated on: 2026-03-14T15:09:26Z",
		"## Key Themes",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("artifact missing %q:\n%s", want, content)
		}
	}
}

func TestSaveFinalKindInName(t *testing.T) {
	dir := t.TempDir()
	e := &Emitter{DocName: "book.pdf", BaseDir: dir}

	path, err := e.Save("summary", types.SummaryFinal)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(filepath.Base(path), "_final_") {
		t.Errorf("artifact name %q missing final tag", filepath.Base(path))
	}
}
