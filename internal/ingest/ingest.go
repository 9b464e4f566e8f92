// Package ingest loads every supported document under a directory tree.
package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/docask/internal/extract"
	"github.com/seanblong/docask/internal/store"
	"github.com/seanblong/docask/pkg/models"
)

// FileSystemWalker defines the interface for walking directories
type FileSystemWalker interface {
	Walk(root string, options *godirwalk.Options) error
}

// FileReader defines the interface for reading files
type FileReader interface {
	ReadFile(filename string) ([]byte, error)
}

// Extractor turns raw file bytes into document text.
type Extractor interface {
	Extract(path string, data []byte) (string, error)
}

// Uploader stores one document. *qa.Service satisfies it.
type Uploader interface {
	Upload(ctx context.Context, name, text string) (models.Document, error)
}

// DefaultFileSystemWalker implements FileSystemWalker using godirwalk
type DefaultFileSystemWalker struct{}

func (d *DefaultFileSystemWalker) Walk(root string, options *godirwalk.Options) error {
	return godirwalk.Walk(root, options)
}

// DefaultFileReader implements FileReader using os
type DefaultFileReader struct{}

func (d *DefaultFileReader) ReadFile(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

// DefaultExtractor reads PDFs with the pdf extractor and everything else as text.
type DefaultExtractor struct{}

func (DefaultExtractor) Extract(path string, data []byte) (string, error) {
	if extract.IsPDF(path) {
		return extract.FromPDFReader(bytes.NewReader(data), int64(len(data)))
	}
	return extract.FromText(string(data))
}

// Stats counts the outcome of one Run.
type Stats struct {
	Files      int64 `json:"files"`
	Loaded     int64 `json:"loaded"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// Ingester loads the documents under Root.
type Ingester struct {
	Root      string
	Uploader  Uploader
	Walker    FileSystemWalker
	Reader    FileReader
	Extractor Extractor
	Workers   int

	mu   sync.Mutex
	seen map[string]string // content hash -> first path
}

// New creates an Ingester that walks the real filesystem.
func New(root string, up Uploader) *Ingester {
	return &Ingester{
		Root:      root,
		Uploader:  up,
		Walker:    &DefaultFileSystemWalker{},
		Reader:    &DefaultFileReader{},
		Extractor: DefaultExtractor{},
	}
}

// workItem represents a file to be processed
type workItem struct {
	path string
	data []byte
}

func (ix *Ingester) workers() int {
	if ix.Workers > 0 {
		return ix.Workers
	}
	// Cap at 8 to avoid overwhelming the database.
	return min(runtime.NumCPU(), 8)
}

// firstSeen records hash and reports whether this run has not seen it yet.
func (ix *Ingester) firstSeen(hash, path string) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.seen == nil {
		ix.seen = make(map[string]string)
	}
	if prev, ok := ix.seen[hash]; ok {
		return prev, false
	}
	ix.seen[hash] = path
	return "", true
}

func (ix *Ingester) process(ctx context.Context, item workItem, st *Stats) {
	relPath := rel(ix.Root, item.path)
	text, err := ix.Extractor.Extract(item.path, item.data)
	if err != nil {
		atomic.AddInt64(&st.Failed, 1)
		log.Warn().Err(err).Str("path", relPath).Msg("extraction failed")
		return
	}
	if prev, ok := ix.firstSeen(store.HashContent(text), relPath); !ok {
		atomic.AddInt64(&st.Duplicates, 1)
		log.Info().Str("path", relPath).Str("duplicate_of", prev).Msg("skipping duplicate document")
		return
	}
	doc, err := ix.Uploader.Upload(ctx, relPath, text)
	if err != nil {
		atomic.AddInt64(&st.Failed, 1)
		log.Error().Err(err).Str("path", relPath).Msg("upload failed")
		return
	}
	atomic.AddInt64(&st.Loaded, 1)
	log.Info().Str("path", relPath).Str("document", doc.ID).Int("chars", doc.CharCount).Msg("loaded document")
}

// Run walks Root and uploads every supported document through a worker pool.
func (ix *Ingester) Run(ctx context.Context) (Stats, error) {
	var st Stats
	numWorkers := ix.workers()
	log.Info().Int("workers", numWorkers).Str("root", ix.Root).Msg("starting ingestion")

	workChan := make(chan workItem, numWorkers*2)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log.Debug().Int("worker", workerID).Msg("worker started")
			for item := range workChan {
				ix.process(ctx, item, &st)
			}
			log.Debug().Int("worker", workerID).Msg("worker finished")
		}(i)
	}

	walkErr := ix.Walker.Walk(ix.Root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Mock walkers pass a nil Dirent.
			if de != nil && de.IsDir() {
				if rel(ix.Root, path) != "." && skipDir(path) {
					return godirwalk.SkipThis
				}
				return nil
			}
			if shouldSkip(rel(ix.Root, path)) {
				return nil
			}

			b, err := ix.Reader.ReadFile(path)
			if err != nil {
				atomic.AddInt64(&st.Failed, 1)
				log.Warn().Err(err).Str("path", path).Msg("failed to read file")
				return nil
			}
			atomic.AddInt64(&st.Files, 1)

			select {
			case workChan <- workItem{path: path, data: b}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})

	close(workChan)
	wg.Wait()

	log.Info().
		Int64("files", st.Files).
		Int64("loaded", st.Loaded).
		Int64("duplicates", st.Duplicates).
		Int64("failed", st.Failed).
		Msg("ingestion finished")
	return st, walkErr
}

var skippedDirs = map[string]struct{}{
	"vendor": {}, ".git": {}, "node_modules": {}, ".venv": {}, "venv": {},
	"__pycache__": {}, ".idea": {}, ".cache": {}, "dist": {}, "build": {},
}

func skipDir(path string) bool {
	_, ok := skippedDirs[strings.ToLower(filepath.Base(path))]
	return ok
}

// shouldSkip returns true if the file at path should be skipped.
func shouldSkip(path string) bool {
	if !extract.Supported(path) {
		return true
	}
	for _, dir := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if skipDir(dir) {
			return true
		}
	}
	return false
}

func rel(root, p string) string {
	r, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return r
}
