// Package loader fetches a search index artifact and builds a queryable index
// from it.
//
// Construction is attempted twice at most. The primary variant honours the
// artifact's own field list and token pipeline. When that is not possible,
// typically because the pipeline names a language without a registered
// analyzer, the degraded variant indexes title, description and body with
// the generic analyzer, one document at a time, skipping malformed documents.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/sitesearch/internal/artifact"
	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/store"
)

// Variant names the construction that produced an index.
type Variant string

const (
	VariantPrimary  Variant = "primary"
	VariantDegraded Variant = "degraded"
)

// DegradedFields are the fields indexed by degraded construction.
var DegradedFields = []string{artifact.FieldTitle, artifact.FieldDescription, artifact.FieldBody}

// Diagnostic records a document that was skipped.
type Diagnostic struct {
	Ref string
	Err error
}

// Construction is the outcome of one construction attempt: exactly one of
// Index and Err is set.
type Construction struct {
	Index *store.BleveIndex
	Err   error
}

// OK reports whether construction produced an index.
func (c Construction) OK() bool {
	return c.Err == nil && c.Index != nil
}

// Loaded is a successfully loaded artifact with its index.
type Loaded struct {
	Artifact *artifact.Artifact
	Index    store.Index
	Variant  Variant
	// Reason is why primary construction was abandoned. Nil for VariantPrimary.
	Reason      error
	Diagnostics []Diagnostic
	Duration    time.Duration
}

// Loader loads artifacts. It holds no per-artifact state and may be reused.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// New creates a loader that retrieves artifacts with f.
func New(f Fetcher, opts ...Option) *Loader {
	l := &Loader{fetcher: f, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the artifact at location and builds its index.
// Fetch and decode failures are terminal and returned as coded errors
// (ErrArtifactUnavailable, ErrArtifactCorrupt). A failed primary construction
// is not an error; the result is then VariantDegraded.
func (l *Loader) Load(ctx context.Context, location string) (*Loaded, error) {
	start := time.Now()
	l.logger.Info("index_load_started", slog.String("location", location))

	resp, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		l.logger.Error("index_load_failed", sserrors.LogAttrs(err)...)
		return nil, err
	}

	a, err := artifact.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		err = sserrors.New(sserrors.ErrCodeArtifactCorrupt, "search index is not valid JSON", err).
			WithDetail("location", location)
		l.logger.Error("index_load_failed", sserrors.LogAttrs(err)...)
		return nil, err
	}

	loaded, err := l.Build(ctx, a)
	if err != nil {
		return nil, err
	}
	loaded.Duration = time.Since(start)

	l.logger.Info("index_loaded",
		slog.String("location", location),
		slog.String("variant", string(loaded.Variant)),
		slog.Int("documents", loaded.Index.DocCount()),
		slog.Int("skipped", len(loaded.Diagnostics)),
		slog.Duration("duration", loaded.Duration))
	return loaded, nil
}

// Build constructs an index for an already decoded artifact, falling back to
// degraded construction when the primary one fails.
func (l *Loader) Build(ctx context.Context, a *artifact.Artifact) (*Loaded, error) {
	primary := BuildPrimary(ctx, a)
	if primary.OK() {
		return &Loaded{Artifact: a, Index: primary.Index, Variant: VariantPrimary}, nil
	}

	l.logger.Warn("index_construction_degraded", sserrors.LogAttrs(primary.Err)...)

	idx, diags, err := BuildDegraded(ctx, a)
	if err != nil {
		err = sserrors.New(sserrors.ErrCodeIndexFailed, "could not build search index", err)
		l.logger.Error("index_load_failed", sserrors.LogAttrs(err)...)
		return nil, err
	}
	for _, d := range diags {
		l.logger.Warn("document_skipped", slog.String("ref", d.Ref), slog.String("error", d.Err.Error()))
	}

	return &Loaded{
		Artifact:    a,
		Index:       idx,
		Variant:     VariantDegraded,
		Reason:      primary.Err,
		Diagnostics: diags,
	}, nil
}

// BuildPrimary builds an index from the artifact's own configuration: its
// field list and the analyzer its pipeline resolves to. Documents are keyed by
// their document store key. Any document that cannot be indexed fails the
// whole construction.
func BuildPrimary(ctx context.Context, a *artifact.Artifact) Construction {
	lang, err := store.ResolvePipeline(a.Pipeline)
	if err != nil {
		return Construction{Err: sserrors.New(sserrors.ErrCodeTokenizerUnavailable, err.Error(), err)}
	}
	if len(a.Fields) == 0 {
		return Construction{Err: sserrors.New(sserrors.ErrCodeTokenizerUnavailable, "search index declares no fields", nil)}
	}

	docs := make([]store.Document, 0, a.Len())
	for _, ref := range a.Refs() {
		if invalid := a.Invalid(ref); invalid != nil {
			return Construction{Err: sserrors.New(sserrors.ErrCodeDocumentMalformed, invalid.Error(), invalid).
				WithDetail("ref", ref)}
		}
		rec, _ := a.Record(ref)
		docs = append(docs, store.Document{Ref: ref, Fields: rec.Fields})
	}

	idx, err := store.NewBleveIndex(store.IndexSpec{Fields: a.Fields, Language: lang})
	if err != nil {
		return Construction{Err: sserrors.New(sserrors.ErrCodeIndexFailed, err.Error(), err)}
	}
	if err := idx.AddBatch(ctx, docs); err != nil {
		_ = idx.Close()
		return Construction{Err: sserrors.New(sserrors.ErrCodeIndexFailed, err.Error(), err)}
	}
	return Construction{Index: idx}
}

// BuildDegraded builds a generic-analyzer index over title, description and
// body, keyed by each record's id. Documents are inserted individually; a
// malformed one is skipped and reported without affecting the others.
// Only a failure to create the index itself is returned as an error.
func BuildDegraded(ctx context.Context, a *artifact.Artifact) (*store.BleveIndex, []Diagnostic, error) {
	idx, err := store.NewBleveIndex(store.IndexSpec{Fields: DegradedFields, Language: store.Generic})
	if err != nil {
		return nil, nil, err
	}

	var diags []Diagnostic
	for _, ref := range a.Refs() {
		if err := ctx.Err(); err != nil {
			_ = idx.Close()
			return nil, nil, err
		}
		if err := addDegraded(ctx, idx, a, ref); err != nil {
			diags = append(diags, Diagnostic{Ref: ref, Err: err})
		}
	}
	return idx, diags, nil
}

func addDegraded(ctx context.Context, idx *store.BleveIndex, a *artifact.Artifact, ref string) (err error) {
	// A document must never take the loop down with it.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w %s: panic while indexing: %v", artifact.ErrMalformed, ref, r)
		}
	}()

	if invalid := a.Invalid(ref); invalid != nil {
		return invalid
	}
	rec, ok := a.Record(ref)
	if !ok {
		return fmt.Errorf("%w %s: not in document store", artifact.ErrMalformed, ref)
	}
	if rec.ID == "" {
		return fmt.Errorf("%w %s: missing %q", artifact.ErrMalformed, ref, artifact.FieldID)
	}
	if err := idx.Add(ctx, store.Document{Ref: rec.ID, Fields: rec.Fields}); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w %s: %v", artifact.ErrMalformed, ref, err)
	}
	return nil
}
