package reference

import (
	"context"

	"github.com/mx-space/pagebuilder/internal/models"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	"go.uber.org/zap"
)

// CycleDetector decides whether adding references to a page would let the
// page reach itself through the reference graph.
type CycleDetector struct {
	edges  EdgeReader
	logger *zap.Logger
}

func NewCycleDetector(edges EdgeReader, opts ...Option) *CycleDetector {
	o := buildOptions(opts)
	return &CycleDetector{edges: edges, logger: o.logger.Named("CycleDetector")}
}

// DetectCircularReferences returns true if any of refs leads back to pageID.
// A direct self reference is reported without touching the store.
func (d *CycleDetector) DetectCircularReferences(ctx context.Context, pageID string, refs []models.Reference) (cyclic bool, err error) {
	defer apperr.Recover(&err)

	if issues := referenceIssues("references", refs); len(issues) > 0 {
		return false, apperr.Validation("Invalid references", issues...)
	}

	w := &walk{
		ctx:     ctx,
		edges:   d.edges,
		origin:  pageID,
		visited: make(map[string]bool),
		stack:   make(map[string]bool),
	}
	for _, ref := range refs {
		if ref.ID == pageID {
			d.logger.Debug("self reference", zap.String("page_id", pageID))
			return true, nil
		}
		found, err := w.visit(ref)
		if err != nil {
			d.logger.Warn("reference graph read failed", zap.String("page_id", pageID), zap.Error(err))
			return false, apperr.DatabaseMsg(err, "Failed to check circular references")
		}
		if found {
			d.logger.Debug("reference cycle", zap.String("page_id", pageID), zap.String("via", ref.Key()))
			return true, nil
		}
	}
	return false, nil
}

// walk is the state of one detection call. visited holds fully explored
// nodes across all candidates; stack holds the current path.
type walk struct {
	ctx     context.Context
	edges   EdgeReader
	origin  string
	visited map[string]bool
	stack   map[string]bool
	depth   int
}

func (w *walk) visit(ref models.Reference) (bool, error) {
	key := ref.Key()
	if w.stack[key] {
		return true, nil
	}
	if w.visited[key] {
		return false, nil
	}

	w.visited[key] = true
	w.stack[key] = true
	w.depth++
	defer func() {
		delete(w.stack, key)
		w.depth--
	}()

	if ref.ID == w.origin && w.depth > 1 {
		return true, nil
	}

	pageType, ok := SectionNamespace(ref.Type)
	if !ok {
		return false, nil
	}
	if err := w.ctx.Err(); err != nil {
		return false, err
	}
	next, err := w.edges.OutgoingReferences(w.ctx, pageType, ref.ID)
	if err != nil {
		return false, err
	}
	for _, n := range next {
		found, err := w.visit(n)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}
