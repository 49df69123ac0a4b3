package dupes

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"shelve/internal/logging"
	"shelve/internal/scan"
)

// Group is a set of files sharing one content fingerprint.
type Group struct {
	Hash  string            `json:"hash"`
	Files []scan.FileRecord `json:"files"`
	// WastedBytes is the total size minus the largest member: the bytes
	// reclaimed if every copy but the biggest were removed.
	WastedBytes int64 `json:"wastedBytes"`
}

// Detector computes content fingerprints and groups duplicates.
type Detector struct {
	logger  *slog.Logger
	cache   *Cache
	workers int
}

// Option customizes a Detector.
type Option func(*Detector)

// WithCache enables hash caching. A nil cache is ignored.
func WithCache(cache *Cache) Option {
	return func(d *Detector) {
		d.cache = cache
	}
}

// WithWorkers overrides the hashing concurrency.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.workers = n
		}
	}
}

// New creates a detector.
func New(logger *slog.Logger, opts ...Option) *Detector {
	d := &Detector{
		logger:  logging.WithComponent(logger, "dupes"),
		workers: min(runtime.NumCPU(), 8),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect hashes every file and returns groups of two or more records with
// identical content, sorted by wasted bytes descending. Files that cannot be
// read are logged and left out of the result.
func (d *Detector) Detect(ctx context.Context, files []scan.FileRecord) ([]Group, error) {
	hashed := make([]scan.FileRecord, len(files))

	var wg sync.WaitGroup
	indexes := make(chan int)

	workers := d.workers
	if workers > len(files) {
		workers = len(files)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				record := files[i]
				hash, err := d.fingerprint(ctx, record)
				if err != nil {
					d.logger.Warn("skipping unhashable file", logging.String("path", record.Path), logging.Error(err))
					continue
				}
				record.ContentHash = hash
				hashed[i] = record
			}
		}()
	}

feed:
	for i := range files {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byHash := make(map[string][]scan.FileRecord)
	for _, record := range hashed {
		if record.ContentHash == "" {
			continue
		}
		byHash[record.ContentHash] = append(byHash[record.ContentHash], record)
	}

	var groups []Group
	for hash, members := range byHash {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, Group{
			Hash:        hash,
			Files:       members,
			WastedBytes: wastedBytes(members),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].WastedBytes != groups[j].WastedBytes {
			return groups[i].WastedBytes > groups[j].WastedBytes
		}
		return groups[i].Hash < groups[j].Hash
	})
	return groups, nil
}

// wastedBytes treats the largest copy as the keeper; everything else is
// reclaimable.
func wastedBytes(members []scan.FileRecord) int64 {
	var total, largest int64
	for _, member := range members {
		total += member.Size
		if member.Size > largest {
			largest = member.Size
		}
	}
	return total - largest
}

func (d *Detector) fingerprint(ctx context.Context, record scan.FileRecord) (string, error) {
	if d.cache != nil {
		if hash, ok := d.cache.Lookup(ctx, record.Path, record.Size, record.ModifiedAt); ok {
			return hash, nil
		}
	}

	file, err := os.Open(record.Path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	hash := hex.EncodeToString(hasher.Sum(nil))

	if d.cache != nil {
		if err := d.cache.Store(ctx, record.Path, record.Size, record.ModifiedAt, hash); err != nil {
			d.logger.Debug("hash cache store failed", logging.String("path", record.Path), logging.Error(err))
		}
	}
	return hash, nil
}
