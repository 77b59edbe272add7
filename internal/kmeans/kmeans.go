package kmeans

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rmitchellscott/qdither/internal/logging"
	"github.com/rmitchellscott/qdither/internal/palette"
	"github.com/rmitchellscott/qdither/internal/rgb"
)

// DefaultThreshold is the largest centroid movement that still counts as converged
const DefaultThreshold = 4.0

var (
	ErrInvalidK = errors.New("kmeans: at least one cluster is required")
	ErrNoPixels = errors.New("kmeans: no pixels to cluster")
)

// Options tunes a clustering run
type Options struct {
	// Threshold is the convergence distance; zero means DefaultThreshold
	Threshold float64
	// MaxIterations caps the number of passes; zero means run until convergence
	MaxIterations int
	// Rand picks the initial centroids; nil seeds from the clock
	Rand *rand.Rand
}

// Result holds the final centroids of a clustering run
type Result struct {
	Centroids  palette.Palette
	Iterations int
	Converged  bool
}

// cluster is a centroid plus the working set assigned to it in the current pass.
// The working set is kept as channel sums and a count.
type cluster struct {
	centroid         rgb.Color
	sumR, sumG, sumB uint64
	members          uint64
}

func (c *cluster) add(p rgb.Color) {
	c.sumR += uint64(p.R)
	c.sumG += uint64(p.G)
	c.sumB += uint64(p.B)
	c.members++
}

// recompute sets the centroid to the ceiling mean of the working set and clears it
func (c *cluster) recompute() {
	if c.members == 0 {
		c.add(rgb.White)
	}
	c.centroid = rgb.Color{
		R: uint8(ceilDiv(c.sumR, c.members)),
		G: uint8(ceilDiv(c.sumG, c.members)),
		B: uint8(ceilDiv(c.sumB, c.members)),
	}
	c.sumR, c.sumG, c.sumB, c.members = 0, 0, 0, 0
}

// Cluster derives k representative colors from pixels.
// Initial centroids are drawn uniformly with replacement, so duplicates are possible.
// The run stops once every centroid moved no more than the threshold in a pass.
func Cluster(pixels []rgb.Color, k int, opts Options) (Result, error) {
	if k < 1 {
		return Result{}, ErrInvalidK
	}
	if len(pixels) == 0 {
		return Result{}, ErrNoPixels
	}

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	r := opts.Rand
	if r == nil {
		seed := uint64(time.Now().UnixNano())
		r = rand.New(rand.NewPCG(seed, seed>>1))
	}

	clusters := make([]cluster, k)
	for i := range clusters {
		clusters[i].centroid = pixels[r.IntN(len(pixels))]
	}

	previous := make([]rgb.Color, k)
	result := Result{}
	for {
		result.Iterations++

		for _, p := range pixels {
			clusters[nearestCluster(clusters, p)].add(p)
		}

		converged := true
		for i := range clusters {
			previous[i] = clusters[i].centroid
			clusters[i].recompute()
			if rgb.Distance(clusters[i].centroid, previous[i]) > threshold {
				converged = false
			}
		}

		if converged {
			result.Converged = true
			break
		}
		if opts.MaxIterations > 0 && result.Iterations >= opts.MaxIterations {
			logging.WarnWithComponent(logging.ComponentKMeans, "Stopped before convergence",
				"iterations", result.Iterations, "clusters", k)
			break
		}
	}

	result.Centroids = make(palette.Palette, k)
	for i := range clusters {
		result.Centroids[i] = clusters[i].centroid
	}

	logging.DebugWithComponent(logging.ComponentKMeans, "Clustering finished",
		"clusters", k, "iterations", result.Iterations, "converged", result.Converged)
	return result, nil
}

// nearestCluster returns the index of the closest centroid; the first wins ties
func nearestCluster(clusters []cluster, p rgb.Color) int {
	best := 0
	bestDistance := math.Inf(1)
	for i := range clusters {
		if d := rgb.Distance(p, clusters[i].centroid); d < bestDistance {
			bestDistance = d
			best = i
		}
	}
	return best
}

func ceilDiv(sum, n uint64) uint64 {
	return (sum + n - 1) / n
}
