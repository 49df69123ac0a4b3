package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shelve/internal/logging"
	"shelve/internal/organize"
	"shelve/internal/scan"
	"shelve/internal/services"
	"shelve/internal/textutil"
)

const systemPrompt = `You are a file organization assistant. You are given a
list of files with metadata and content previews, a target root directory,
and the folders that already exist under it. For each file, pick the best
destination folder (an existing one when it fits, a new relative path when
none does). Respond with JSON only, in this exact shape:
{"proposals":[{"source":"<file path>","folder":"<relative folder>","confidence":0.0}],"uncategorized":["<file path>"]}
Every input file must appear exactly once, either in proposals or in
uncategorized. Confidence is your certainty from 0.0 to 1.0.`

// Plan is a validated batch of proposed moves plus the files the model
// declined to place.
type Plan struct {
	Proposals     []organize.Proposal `json:"proposals"`
	Uncategorized []string            `json:"uncategorized"`
}

// Categorizer produces a move plan for a batch of scanned files. The
// pipeline depends on this interface so tests can substitute a fake.
type Categorizer interface {
	Categorize(ctx context.Context, files []scan.FileRecord, targetRoot string, existingFolders []string) (*Plan, error)
}

// Completer is the slice of Client the categorizer needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ModelCategorizer asks a chat completion model to place files.
type ModelCategorizer struct {
	completer        Completer
	titleCaseFolders bool
	titleCaser       cases.Caser
	logger           *slog.Logger
}

// NewCategorizer builds a model-backed categorizer. When titleCaseFolders
// is set, suggested folder names are normalized to title case so the model
// cannot fragment the library into "invoices" and "Invoices".
func NewCategorizer(completer Completer, titleCaseFolders bool, logger *slog.Logger) *ModelCategorizer {
	return &ModelCategorizer{
		completer:        completer,
		titleCaseFolders: titleCaseFolders,
		titleCaser:       cases.Title(language.English),
		logger:           logging.WithComponent(logger, "classify"),
	}
}

type requestFile struct {
	Path           string `json:"path"`
	Name           string `json:"name"`
	Extension      string `json:"extension,omitempty"`
	Size           int64  `json:"size"`
	MimeType       string `json:"mimeType,omitempty"`
	ContentPreview string `json:"contentPreview,omitempty"`
}

type requestPayload struct {
	Files           []requestFile `json:"files"`
	TargetRoot      string        `json:"targetRoot"`
	ExistingFolders []string      `json:"existingFolders"`
}

type responsePayload struct {
	Proposals []struct {
		Source     string  `json:"source"`
		Folder     string  `json:"folder"`
		Confidence float64 `json:"confidence"`
	} `json:"proposals"`
	Uncategorized []string `json:"uncategorized"`
}

// Categorize sends one batch to the model and validates the answer. Unknown
// source paths and unsafe folder suggestions are dropped rather than passed
// downstream.
func (m *ModelCategorizer) Categorize(ctx context.Context, files []scan.FileRecord, targetRoot string, existingFolders []string) (*Plan, error) {
	if len(files) == 0 {
		return &Plan{}, nil
	}

	payload := requestPayload{
		Files:           make([]requestFile, 0, len(files)),
		TargetRoot:      targetRoot,
		ExistingFolders: existingFolders,
	}
	for _, file := range files {
		payload.Files = append(payload.Files, requestFile{
			Path:           file.Path,
			Name:           file.Name,
			Extension:      file.Extension,
			Size:           file.Size,
			MimeType:       file.MimeType,
			ContentPreview: file.ContentPreview,
		})
	}
	userPrompt, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "classify", "categorize", "encode request", err)
	}

	content, err := m.completer.CompleteJSON(ctx, systemPrompt, string(userPrompt))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "classify", "categorize", "model request failed", err)
	}

	var parsed responsePayload
	if err := DecodeJSON(content, &parsed); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "classify", "categorize", "unparsable model response", err)
	}
	return m.buildPlan(files, targetRoot, parsed), nil
}

// buildPlan converts a raw model response into a plan. First proposal wins
// when the model mentions a source twice.
func (m *ModelCategorizer) buildPlan(files []scan.FileRecord, targetRoot string, parsed responsePayload) *Plan {
	known := make(map[string]bool, len(files))
	for _, file := range files {
		known[file.Path] = true
	}

	plan := &Plan{}
	seen := make(map[string]bool)

	for _, raw := range parsed.Proposals {
		source := strings.TrimSpace(raw.Source)
		if !known[source] {
			m.logger.Warn("dropping proposal for unknown source", logging.String("source", raw.Source))
			continue
		}
		if seen[source] {
			continue
		}

		folder, err := m.normalizeFolder(raw.Folder)
		if err != nil {
			m.logger.Warn("dropping proposal with unsafe folder",
				logging.String("source", source), logging.String("folder", raw.Folder), logging.Error(err))
			plan.Uncategorized = append(plan.Uncategorized, source)
			seen[source] = true
			continue
		}

		seen[source] = true
		plan.Proposals = append(plan.Proposals, organize.Proposal{
			SourcePath:      source,
			DestinationPath: filepath.Join(targetRoot, folder, filepath.Base(source)),
			Confidence:      clampConfidence(raw.Confidence),
		})
	}

	for _, source := range parsed.Uncategorized {
		source = strings.TrimSpace(source)
		if known[source] && !seen[source] {
			seen[source] = true
			plan.Uncategorized = append(plan.Uncategorized, source)
		}
	}

	// Files the model forgot about stay behind rather than vanish.
	for _, file := range files {
		if !seen[file.Path] {
			plan.Uncategorized = append(plan.Uncategorized, file.Path)
		}
	}
	return plan
}

// normalizeFolder rejects folders that would escape the target root and
// optionally applies title casing per path segment.
func (m *ModelCategorizer) normalizeFolder(folder string) (string, error) {
	folder = strings.TrimSpace(folder)
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return "", fmt.Errorf("empty folder")
	}
	cleaned := filepath.Clean(folder)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("folder escapes target root: %s", folder)
	}
	segments := strings.Split(cleaned, string(filepath.Separator))
	kept := segments[:0]
	for _, segment := range segments {
		segment = textutil.SanitizeSegment(segment)
		if segment == "" {
			continue
		}
		if m.titleCaseFolders {
			segment = m.titleCaser.String(segment)
		}
		kept = append(kept, segment)
	}
	if len(kept) == 0 {
		return "", fmt.Errorf("folder empty after sanitizing: %s", folder)
	}
	return filepath.Join(kept...), nil
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
