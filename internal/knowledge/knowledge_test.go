package knowledge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/bookdigest/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, knowledgeBasesDir), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := types.IndexConfig{
		BaseDir:    tmpDir,
		MaxResults: 20,
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, tmpDir
}

func writeKnowledge(t *testing.T, tmpDir, document string, points []string) string {
	t.Helper()
	path := FilePath(tmpDir, document+".pdf")
	if err := Persist(path, points); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- accumulator ---

func TestPersistLoadRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		points []string
	}{
		{"empty sequence", []string{}},
		{"single point", []string{"Stoicism teaches control of judgment."}},
		{"multiple points", []string{"a", "b", "c"}},
		{"preserves duplicates and order", []string{"x", "x", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "doc_knowledge.json")
			if err := Persist(path, tt.points); err != nil {
				t.Fatal(err)
			}

			res := Load(path)
			if res.Status != Loaded {
				t.Fatalf("Load status = %d, want Loaded", res.Status)
			}
			if !reflect.DeepEqual(res.Base.Knowledge, tt.points) {
				t.Errorf("round trip = %v, want %v", res.Base.Knowledge, tt.points)
			}
		})
	}
}

func TestPersistOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc_knowledge.json")
	if err := Persist(path, []string{"old", "state"}); err != nil {
		t.Fatal(err)
	}
	if err := Persist(path, []string{"new"}); err != nil {
		t.Fatal(err)
	}

	res := Load(path)
	if res.Status != Loaded {
		t.Fatalf("Load status = %d, want Loaded", res.Status)
	}
	if !reflect.DeepEqual(res.Base.Knowledge, []string{"new"}) {
		t.Errorf("after overwrite = %v, want [new]", res.Base.Knowledge)
	}
}

func TestPersistDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc_knowledge.json")
	if err := Persist(path, []string{"point"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string][]string
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["knowledge"]; !ok {
		t.Errorf("persisted document missing top-level knowledge key: %s", data)
	}
}

func TestLoadAbsent(t *testing.T) {
	res := Load(filepath.Join(t.TempDir(), "missing_knowledge.json"))
	if res.Status != Absent {
		t.Errorf("Load status = %d, want Absent", res.Status)
	}
	if res.Err != nil {
		t.Errorf("Absent result carries error: %v", res.Err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad_knowledge.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := Load(path)
	if res.Status != Corrupt {
		t.Fatalf("Load status = %d, want Corrupt", res.Status)
	}
	if res.Err == nil {
		t.Error("Corrupt result missing error")
	}
}

func TestAppend(t *testing.T) {
	base := []string{"a", "b"}

	got := Append(base, "c")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Append = %v, want %v", got, want)
	}

	// Input slice is untouched.
	if !reflect.DeepEqual(base, []string{"a", "b"}) {
		t.Errorf("Append mutated input: %v", base)
	}

	// Appending nothing returns an equal sequence.
	if !reflect.DeepEqual(Append(base), base) {
		t.Errorf("Append with no items = %v, want %v", Append(base), base)
	}
}

func TestAppendAssociative(t *testing.T) {
	// Accumulating [a, b] then [c] equals accumulating [a, b, c] at once.
	stepwise := Append(Append(nil, "a", "b"), "c")
	oneShot := Append(nil, "a", "b", "c")
	if !reflect.DeepEqual(stepwise, oneShot) {
		t.Errorf("stepwise %v != one-shot %v", stepwise, oneShot)
	}
}

func TestDocBase(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"meditations.pdf", "meditations"},
		{"no-extension", "no-extension"},
		{"dir/nested.pdf", "nested"},
	}
	for _, tt := range tests {
		if got := DocBase(tt.name); got != tt.want {
			t.Errorf("DocBase(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFilePath(t *testing.T) {
	got := FilePath("book_analysis", "meditations.pdf")
	want := filepath.Join("book_analysis", "knowledge_bases", "meditations_knowledge.json")
	if got != want {
		t.Errorf("FilePath = %q, want %q", got, want)
	}
}

// --- index store ---

func TestIngestAndRetrieve(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeKnowledge(t, tmpDir, "meditations", []string{
		"The impediment to action advances action.",
		"You have power over your mind, not outside events.",
	})

	var out strings.Builder
	summary, err := store.Ingest(context.Background(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Indexed != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 1 indexed", summary)
	}

	results, err := store.Retrieve(context.Background(), QueryOptions{Query: "impediment"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Document != "meditations" || results[0].Ordinal != 0 {
		t.Errorf("result provenance = %+v", results[0])
	}
}

func TestIngestSkipsUnchanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeKnowledge(t, tmpDir, "meditations", []string{"point"})

	var out strings.Builder
	if _, err := store.Ingest(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	summary, err := store.Ingest(context.Background(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Indexed != 0 {
		t.Errorf("second ingest summary = %+v, want 1 skipped", summary)
	}
}

func TestIngestUpdatesChanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeKnowledge(t, tmpDir, "meditations", []string{"old point"})

	var out strings.Builder
	if _, err := store.Ingest(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	if err := Persist(path, []string{"old point", "fresh point"}); err != nil {
		t.Fatal(err)
	}
	// Ensure a distinct mod time even on coarse-grained filesystems.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	summary, err := store.Ingest(context.Background(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Fatalf("summary = %+v, want 1 updated", summary)
	}

	results, err := store.Retrieve(context.Background(), QueryOptions{Document: "meditations"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d points after update, want 2", len(results))
	}
}

func TestIngestReportsCorruptFile(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := filepath.Join(tmpDir, knowledgeBasesDir, "bad_knowledge.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	summary, err := store.Ingest(context.Background(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
}

func TestRetrieveDocumentFilterKeepsOrder(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeKnowledge(t, tmpDir, "meditations", []string{"first", "second", "third"})
	writeKnowledge(t, tmpDir, "infdesc", []string{"induction principle"})

	var out strings.Builder
	if _, err := store.Ingest(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	results, err := store.Retrieve(context.Background(), QueryOptions{Document: "meditations"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, r := range results {
		if r.Ordinal != i {
			t.Errorf("result %d ordinal = %d, want %d", i, r.Ordinal, i)
		}
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{}).IsEmpty() {
		t.Error("zero options should be empty")
	}
	if (QueryOptions{Query: "q"}).IsEmpty() {
		t.Error("query options should not be empty")
	}
	if (QueryOptions{Document: "d"}).IsEmpty() {
		t.Error("document filter should not be empty")
	}
}

func TestExportYAMLAndJSON(t *testing.T) {
	store, tmpDir := testSetup(t)
	writeKnowledge(t, tmpDir, "meditations", []string{"exported point"})

	var out strings.Builder
	if _, err := store.Ingest(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	if err := store.ExportYAML(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := store.ExportJSON(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	yamlData, err := os.ReadFile(filepath.Join(tmpDir, indexDir, "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(yamlData), "exported point") {
		t.Errorf("export.yaml missing point: %s", yamlData)
	}

	jsonData, err := os.ReadFile(filepath.Join(tmpDir, indexDir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []QueryResult
	if err := json.Unmarshal(jsonData, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Content != "exported point" {
		t.Errorf("export.json entries = %+v", entries)
	}
}
