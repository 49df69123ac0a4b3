package classify_test

import (
	"context"
	"path/filepath"
	"testing"

	"shelve/internal/classify"
	"shelve/internal/logging"
	"shelve/internal/scan"
)

type stubCompleter struct {
	response string
	err      error
}

func (s *stubCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.response, s.err
}

func records(paths ...string) []scan.FileRecord {
	out := make([]scan.FileRecord, 0, len(paths))
	for _, p := range paths {
		out = append(out, scan.FileRecord{Path: p, Name: filepath.Base(p)})
	}
	return out
}

func TestCategorizeBuildsProposals(t *testing.T) {
	stub := &stubCompleter{response: `{
		"proposals": [
			{"source": "/in/invoice.pdf", "folder": "finance/invoices", "confidence": 0.92}
		],
		"uncategorized": ["/in/mystery.bin"]
	}`}
	cat := classify.NewCategorizer(stub, false, logging.NewNop())

	plan, err := cat.Categorize(context.Background(), records("/in/invoice.pdf", "/in/mystery.bin"), "/library", nil)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if len(plan.Proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(plan.Proposals))
	}
	want := filepath.Join("/library", "finance", "invoices", "invoice.pdf")
	if plan.Proposals[0].DestinationPath != want {
		t.Fatalf("destination = %q, want %q", plan.Proposals[0].DestinationPath, want)
	}
	if len(plan.Uncategorized) != 1 || plan.Uncategorized[0] != "/in/mystery.bin" {
		t.Fatalf("unexpected uncategorized: %v", plan.Uncategorized)
	}
}

func TestCategorizeDropsUnknownSources(t *testing.T) {
	stub := &stubCompleter{response: `{
		"proposals": [
			{"source": "/in/real.txt", "folder": "docs", "confidence": 0.8},
			{"source": "/in/hallucinated.txt", "folder": "docs", "confidence": 0.9}
		]
	}`}
	cat := classify.NewCategorizer(stub, false, logging.NewNop())

	plan, err := cat.Categorize(context.Background(), records("/in/real.txt"), "/library", nil)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if len(plan.Proposals) != 1 || plan.Proposals[0].SourcePath != "/in/real.txt" {
		t.Fatalf("hallucinated source not dropped: %+v", plan.Proposals)
	}
}

func TestCategorizeFirstProposalWins(t *testing.T) {
	stub := &stubCompleter{response: `{
		"proposals": [
			{"source": "/in/a.txt", "folder": "docs", "confidence": 0.8},
			{"source": "/in/a.txt", "folder": "other", "confidence": 0.9}
		]
	}`}
	cat := classify.NewCategorizer(stub, false, logging.NewNop())

	plan, err := cat.Categorize(context.Background(), records("/in/a.txt"), "/library", nil)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if len(plan.Proposals) != 1 {
		t.Fatalf("expected first-wins dedupe, got %d proposals", len(plan.Proposals))
	}
	if got := plan.Proposals[0].DestinationPath; filepath.Dir(got) != filepath.Join("/library", "docs") {
		t.Fatalf("wrong winner: %q", got)
	}
}

func TestCategorizeRejectsTraversal(t *testing.T) {
	stub := &stubCompleter{response: `{
		"proposals": [
			{"source": "/in/a.txt", "folder": "../../etc", "confidence": 0.9}
		]
	}`}
	cat := classify.NewCategorizer(stub, false, logging.NewNop())

	plan, err := cat.Categorize(context.Background(), records("/in/a.txt"), "/library", nil)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if len(plan.Proposals) != 0 {
		t.Fatalf("traversal folder not rejected: %+v", plan.Proposals)
	}
	if len(plan.Uncategorized) != 1 {
		t.Fatalf("rejected file should land in uncategorized: %v", plan.Uncategorized)
	}
}

func TestCategorizeTitleCasesFolders(t *testing.T) {
	stub := &stubCompleter{response: `{
		"proposals": [
			{"source": "/in/a.txt", "folder": "tax documents/2026", "confidence": 0.9}
		]
	}`}
	cat := classify.NewCategorizer(stub, true, logging.NewNop())

	plan, err := cat.Categorize(context.Background(), records("/in/a.txt"), "/library", nil)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	want := filepath.Join("/library", "Tax Documents", "2026", "a.txt")
	if plan.Proposals[0].DestinationPath != want {
		t.Fatalf("destination = %q, want %q", plan.Proposals[0].DestinationPath, want)
	}
}

func TestCategorizeSanitizesFolderSegments(t *testing.T) {
	stub := &stubCompleter{response: `{
		"proposals": [
			{"source": "/in/a.txt", "folder": "work: projects/q3?", "confidence": 0.9}
		]
	}`}
	cat := classify.NewCategorizer(stub, false, logging.NewNop())

	plan, err := cat.Categorize(context.Background(), records("/in/a.txt"), "/library", nil)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	want := filepath.Join("/library", "work- projects", "q3", "a.txt")
	if plan.Proposals[0].DestinationPath != want {
		t.Fatalf("destination = %q, want %q", plan.Proposals[0].DestinationPath, want)
	}
}

func TestCategorizeForgottenFilesStayUncategorized(t *testing.T) {
	stub := &stubCompleter{response: `{"proposals": [], "uncategorized": []}`}
	cat := classify.NewCategorizer(stub, false, logging.NewNop())

	plan, err := cat.Categorize(context.Background(), records("/in/a.txt", "/in/b.txt"), "/library", nil)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if len(plan.Uncategorized) != 2 {
		t.Fatalf("forgotten files missing from uncategorized: %v", plan.Uncategorized)
	}
}

func TestCategorizeClampsConfidence(t *testing.T) {
	stub := &stubCompleter{response: `{
		"proposals": [
			{"source": "/in/a.txt", "folder": "docs", "confidence": 1.7}
		]
	}`}
	cat := classify.NewCategorizer(stub, false, logging.NewNop())

	plan, err := cat.Categorize(context.Background(), records("/in/a.txt"), "/library", nil)
	if err != nil {
		t.Fatalf("categorize: %v", err)
	}
	if plan.Proposals[0].Confidence != 1 {
		t.Fatalf("confidence not clamped: %v", plan.Proposals[0].Confidence)
	}
}
