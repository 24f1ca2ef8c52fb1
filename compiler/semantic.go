package compiler

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bawdo/filtersql/embedding"
	"github.com/bawdo/filtersql/filter"
	"github.com/bawdo/filtersql/nodes"
	"github.com/bawdo/filtersql/schema"
)

var metrics = map[schema.Metric]nodes.DistanceMetric{
	schema.MetricCosine:       nodes.Cosine,
	schema.MetricL2:           nodes.Euclidean,
	schema.MetricInnerProduct: nodes.InnerProduct,
}

// embedAll embeds every distinct semantic query text in the tree before
// composition starts. Texts are embedded concurrently; the first failure
// cancels the rest and fails the compile.
func (s *state) embedAll(ctx context.Context, root filter.Node) error {
	paths := map[string]string{}
	var texts []string
	err := filter.Walk(root, func(n filter.Node, path string, _ int) error {
		l, ok := n.(*filter.Leaf)
		if !ok || l.Op != filter.OpSemantic {
			return nil
		}
		sem, ok := l.Value.(filter.Semantic)
		if !ok {
			return nil
		}
		if _, seen := paths[sem.Query]; !seen {
			paths[sem.Query] = path
			texts = append(texts, sem.Query)
		}
		return nil
	})
	if err != nil || len(texts) == 0 {
		return err
	}
	if s.c.embedder == nil {
		return filter.Embedding(paths[texts[0]], fmt.Errorf("no embedding provider configured"))
	}

	var mu sync.Mutex
	s.vectors = make(map[string]embedding.Vector, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.c.concurrency)
	for _, text := range texts {
		text := text
		g.Go(func() error {
			vec, err := s.c.embedder.Embed(gctx, text)
			if err != nil {
				return filter.Embedding(paths[text], err)
			}
			if len(vec) == 0 {
				return filter.Embedding(paths[text], fmt.Errorf("provider returned an empty vector"))
			}
			if d := s.c.dimensions; d > 0 && len(vec) != d {
				return filter.Embedding(paths[text], fmt.Errorf("%w: got %d, want %d", embedding.ErrDimension, len(vec), d))
			}
			mu.Lock()
			s.vectors[text] = vec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.c.logger.DebugContext(ctx, "embedded semantic queries", "texts", len(texts))
	return nil
}

// semantic emits "<vector column> <op> <vector> <= <threshold>".
func (s *state) semantic(col *schema.Column, v filter.Semantic, path string) (nodes.Node, error) {
	target, ok := s.embeddingColumn(col)
	if !ok {
		return nil, filter.Validationf(path, "semantic search is not available on %q", col.Name)
	}
	vec, ok := s.vectors[v.Query]
	if !ok {
		return nil, filter.Assembly("no embedding for semantic condition at "+path, nil)
	}
	metric, ok := metrics[target.Metric]
	if !ok {
		metric = nodes.Cosine
	}
	return nodes.Column(target.Name).Distance(vec.String(), metric).LtEq(v.Limit()), nil
}
