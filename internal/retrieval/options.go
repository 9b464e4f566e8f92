package retrieval

import (
	"errors"
	"fmt"
)

// Defaults used by GetRelevantChunks and DefaultOptions.
const (
	DefaultChunkSize          = 512
	DefaultOverlap            = 128
	DefaultMaxSelectedChunks  = 4
	DefaultFallbackChunks     = 2
	DefaultCoverageExponent   = 2
	DefaultCoverageMultiplier = 10
	DefaultSeparator          = "\n\n---\n\n"
	DefaultParallelThreshold  = 64
)

var (
	ErrInvalidChunkSize   = errors.New("chunk size must be positive")
	ErrInvalidOverlap     = errors.New("overlap must be non-negative and smaller than chunk size")
	ErrInvalidSelection   = errors.New("max selected chunks must be positive")
	ErrInvalidFallback    = errors.New("fallback chunk count must be positive")
	ErrInvalidCoverage    = errors.New("coverage exponent must be >= 1 and multiplier >= 0")
	ErrInvalidParallelism = errors.New("parallelism must be non-negative")
)

// Options configures a Retriever. All values are fixed once the Retriever is built.
type Options struct {
	ChunkSize          int // nominal window size in words
	Overlap            int // words shared between consecutive windows
	MaxSelectedChunks  int // cap on ranked chunks returned
	FallbackChunks     int // chunks returned when there is no scoring signal
	CoverageExponent   int // exponent applied to the distinct keyword match count
	CoverageMultiplier float64
	Separator          string // placed between returned chunks

	// Parallelism bounds concurrent chunk scoring. 0 means GOMAXPROCS.
	Parallelism int
	// ParallelThreshold is the chunk count from which scoring runs concurrently.
	// Values <= 0 disable concurrent scoring.
	ParallelThreshold int
}

// DefaultOptions returns the stock retrieval configuration.
func DefaultOptions() Options {
	return Options{
		ChunkSize:          DefaultChunkSize,
		Overlap:            DefaultOverlap,
		MaxSelectedChunks:  DefaultMaxSelectedChunks,
		FallbackChunks:     DefaultFallbackChunks,
		CoverageExponent:   DefaultCoverageExponent,
		CoverageMultiplier: DefaultCoverageMultiplier,
		Separator:          DefaultSeparator,
		ParallelThreshold:  DefaultParallelThreshold,
	}
}

// Validate reports the first configuration error in o.
func (o Options) Validate() error {
	if err := validateWindow(o.ChunkSize, o.Overlap); err != nil {
		return err
	}
	if o.MaxSelectedChunks <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSelection, o.MaxSelectedChunks)
	}
	if o.FallbackChunks <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFallback, o.FallbackChunks)
	}
	if o.CoverageExponent < 1 || o.CoverageMultiplier < 0 {
		return fmt.Errorf("%w: exponent=%d multiplier=%g", ErrInvalidCoverage, o.CoverageExponent, o.CoverageMultiplier)
	}
	if o.Parallelism < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidParallelism, o.Parallelism)
	}
	return nil
}

func validateWindow(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap=%d size=%d", ErrInvalidOverlap, overlap, size)
	}
	return nil
}
