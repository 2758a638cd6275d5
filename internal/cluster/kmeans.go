// Package cluster groups documents with K-Means over L2-normalised TF-IDF
// vectors. Runs are deterministic for a given corpus, k and seed.
package cluster

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
)

type Options struct {
	K             int
	MaxIterations int
	Workers       int
	Seed          uint64
}

// Assignment is a document with the cluster it was placed in.
type Assignment struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Cluster  int    `json:"cluster"`
}

type Result struct {
	Assignments []Assignment
	K           int
	Iterations  int
	Converged   bool
	Duration    time.Duration
}

type kmeans struct {
	opts      Options
	points    [][]float64
	centroids [][]float64
	labels    []int
	logger    *slog.Logger
}

// Run clusters docs. k is clamped to the number of documents; an empty
// corpus yields an empty result.
func Run(ctx context.Context, docs []corpus.Document, idx *index.Index, opts Options) (Result, error) {
	start := time.Now()
	if opts.K < 1 {
		opts.K = 1
	}
	if opts.MaxIterations < 1 {
		opts.MaxIterations = 100
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	sorted := append([]corpus.Document(nil), docs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	if len(sorted) == 0 {
		return Result{Assignments: []Assignment{}, Duration: time.Since(start)}, nil
	}
	if opts.K > len(sorted) {
		opts.K = len(sorted)
	}

	km := &kmeans{
		opts:   opts,
		logger: slog.Default().With("component", "kmeans"),
	}
	points, err := vectors(ctx, sorted, idx, opts.Workers)
	if err != nil {
		return Result{}, interrupted(err)
	}
	km.points = points
	km.labels = make([]int, len(points))
	for i := range km.labels {
		km.labels[i] = -1
	}
	km.seed()

	result := Result{K: opts.K}
	for result.Iterations < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return Result{}, interrupted(err)
		}
		result.Iterations++
		changed, err := km.assign(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, interrupted(ctx.Err())
			}
			return Result{}, err
		}
		if !changed {
			result.Converged = true
			break
		}
		km.update()
	}

	result.Assignments = make([]Assignment, len(sorted))
	for i, doc := range sorted {
		result.Assignments[i] = Assignment{
			ID:       doc.ID,
			Text:     doc.Text,
			Category: doc.Category,
			Cluster:  km.labels[i],
		}
	}
	result.Duration = time.Since(start)
	km.logger.Debug("clustering finished",
		"documents", len(sorted),
		"k", opts.K,
		"iterations", result.Iterations,
		"converged", result.Converged,
	)
	return result, nil
}

// vectors builds one L2-normalised tf·idf row per document over the sorted
// vocabulary. Rows are independent, so they are built in shards.
func vectors(ctx context.Context, docs []corpus.Document, idx *index.Index, workers int) ([][]float64, error) {
	vocab := idx.Vocabulary()
	column := make(map[string]int, len(vocab))
	for i, t := range vocab {
		column[t] = i
	}
	idf := make([]float64, len(vocab))
	for i, t := range vocab {
		idf[i] = idx.IDF(t)
	}

	points := make([][]float64, len(docs))
	err := shard(ctx, len(docs), workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v := make([]float64, len(vocab))
			for term, tf := range idx.DocTerms(docs[i].ID) {
				j := column[term]
				v[j] = float64(tf) * idf[j]
			}
			if n := floats.Norm(v, 2); n > 0 {
				floats.Scale(1/n, v)
			}
			points[i] = v
		}
		return nil
	})
	return points, err
}

// seed picks initial centroids with k-means++. When every remaining point
// coincides with a chosen centroid the lowest unused index is taken.
func (km *kmeans) seed() {
	rng := rand.New(rand.NewPCG(km.opts.Seed, km.opts.Seed))
	n := len(km.points)
	chosen := make(map[int]bool, km.opts.K)
	first := rng.IntN(n)
	chosen[first] = true
	km.centroids = [][]float64{clone(km.points[first])}

	dist := make([]float64, n)
	for len(km.centroids) < km.opts.K {
		var total float64
		for i, p := range km.points {
			d := math.Inf(1)
			for _, c := range km.centroids {
				d = math.Min(d, sqDist(p, c))
			}
			dist[i] = d
			total += d
		}
		next := -1
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range dist {
				r -= d
				if r < 0 && !chosen[i] {
					next = i
					break
				}
			}
		}
		if next < 0 {
			for i := 0; i < n; i++ {
				if !chosen[i] {
					next = i
					break
				}
			}
		}
		chosen[next] = true
		km.centroids = append(km.centroids, clone(km.points[next]))
	}
}

// assign moves every point to its nearest centroid, lowest cluster id on
// ties, and reports whether any label changed.
func (km *kmeans) assign(ctx context.Context) (bool, error) {
	var changed atomic.Bool
	err := shard(ctx, len(km.points), km.opts.Workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range km.centroids {
				d := sqDist(km.points[i], centroid)
				if math.IsNaN(d) || math.IsInf(d, 0) {
					return apperrors.Internal("non-finite distance between document %d and centroid %d", i, c)
				}
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if km.labels[i] != best {
				km.labels[i] = best
				changed.Store(true)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed.Load(), nil
}

// update recomputes centroids as member means and re-seeds empty clusters
// with the point farthest from its own centroid.
func (km *kmeans) update() {
	dim := len(km.points[0])
	counts := make([]int, len(km.centroids))
	sums := make([][]float64, len(km.centroids))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range km.points {
		floats.Add(sums[km.labels[i]], p)
		counts[km.labels[i]]++
	}
	for c := range km.centroids {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), sums[c])
			km.centroids[c] = sums[c]
		}
	}
	for c := range km.centroids {
		if counts[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, p := range km.points {
			if counts[km.labels[i]] < 2 {
				continue
			}
			if d := sqDist(p, km.centroids[km.labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			continue
		}
		counts[km.labels[far]]--
		km.labels[far] = c
		counts[c] = 1
		km.centroids[c] = clone(km.points[far])
	}
}

// shard runs fn over [0,n) split into at most workers contiguous ranges.
func shard(ctx context.Context, n, workers int, fn func(lo, hi int) error) error {
	if n == 0 {
		return nil
	}
	workers = min(workers, n)
	size := (n + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(lo, hi)
		})
	}
	return g.Wait()
}

func interrupted(err error) error {
	return apperrors.Newf(apperrors.ErrTimeout, http.StatusServiceUnavailable, "clustering interrupted: %v", err)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
