package scan

import (
	"bufio"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// previewLineCap bounds how many lines of a text file are retained as
// preview signal for the categorizer.
const previewLineCap = 20

// FileRecord describes one scanned file. Records are immutable once built;
// ContentHash is the only field filled in later, by the duplicate detector.
type FileRecord struct {
	Path           string    `json:"path"`
	Name           string    `json:"name"`
	Extension      string    `json:"extension"`
	Size           int64     `json:"size"`
	ModifiedAt     time.Time `json:"modifiedAt"`
	CreatedAt      time.Time `json:"createdAt"`
	MimeType       string    `json:"mimeType,omitempty"`
	ContentPreview string    `json:"contentPreview,omitempty"`
	ContentHash    string    `json:"contentHash,omitempty"`
}

// Options controls a scan.
type Options struct {
	Recursive bool
	// MaxDepth limits recursion; 0 means unlimited when Recursive is set.
	MaxDepth int
	// IgnorePatterns supports exact file names and *.ext suffix patterns.
	IgnorePatterns []string
	ReadContent    bool
	MaxContentSize int64
}

// Record builds a FileRecord for a single file path. The watcher uses this to
// rescan just the files named in a batch.
func (s *Scanner) Record(path string, opts Options) (FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileRecord{}, err
	}
	absolute, err := filepath.Abs(path)
	if err != nil {
		return FileRecord{}, err
	}
	return s.buildRecord(absolute, info, opts), nil
}

func (s *Scanner) buildRecord(path string, info os.FileInfo, opts Options) FileRecord {
	name := info.Name()
	ext := strings.ToLower(filepath.Ext(name))

	record := FileRecord{
		Path:       path,
		Name:       name,
		Extension:  ext,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		CreatedAt:  createdTime(info),
		MimeType:   detectMimeType(path, ext),
	}

	if opts.ReadContent && info.Size() <= opts.MaxContentSize && isTextLike(record.MimeType) {
		record.ContentPreview = s.readPreview(path, opts.MaxContentSize)
	}
	return record
}

func detectMimeType(path, ext string) string {
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return byExt
	}
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return ""
	}
	if n == 0 {
		return ""
	}
	return http.DetectContentType(head[:n])
}

func isTextLike(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	for _, suffix := range []string{"json", "xml", "javascript", "yaml", "x-sh"} {
		if strings.Contains(mimeType, suffix) {
			return true
		}
	}
	return false
}

// readPreview returns the first lines of a text file. Failures degrade to an
// empty preview; the preview is advisory signal only and must never block a
// scan.
func (s *Scanner) readPreview(path string, maxBytes int64) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(io.LimitReader(file, maxBytes))
	lines := make([]string, 0, previewLineCap)
	for scanner.Scan() && len(lines) < previewLineCap {
		lines = append(lines, scanner.Text())
	}
	return strings.Join(lines, "\n")
}
