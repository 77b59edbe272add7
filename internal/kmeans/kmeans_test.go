package kmeans

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/rmitchellscott/qdither/internal/palette"
	"github.com/rmitchellscott/qdither/internal/rgb"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

// sequence is a rand.Source replaying fixed values. With a power-of-two pixel
// count, IntN picks pixels[value % len(pixels)].
type sequence struct {
	values []uint64
	next   int
}

func (s *sequence) Uint64() uint64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func TestClusterSingleClusterIsCeilingMean(t *testing.T) {
	pixels := []rgb.Color{
		{R: 0, G: 10, B: 255},
		{R: 1, G: 11, B: 0},
		{R: 255, G: 12, B: 1},
	}
	// sums 256, 33, 256 over 3 pixels
	want := rgb.Color{R: 86, G: 11, B: 86}

	for seed := uint64(0); seed < 10; seed++ {
		res, err := Cluster(pixels, 1, Options{Rand: seeded(seed)})
		if err != nil {
			t.Fatalf("Cluster() error = %v", err)
		}
		if len(res.Centroids) != 1 || res.Centroids[0] != want {
			t.Errorf("seed %d: centroids = %v, want [%v]", seed, res.Centroids, want)
		}
		if !res.Converged || res.Iterations > 2 {
			t.Errorf("seed %d: converged=%v after %d iterations, want <= 2", seed, res.Converged, res.Iterations)
		}
	}
}

func TestClusterSeparatesTwoGroups(t *testing.T) {
	var pixels []rgb.Color
	for i := 0; i < 50; i++ {
		pixels = append(pixels, rgb.Color{}, rgb.White)
	}

	for seed := uint64(0); seed < 20; seed++ {
		res, err := Cluster(pixels, 2, Options{Rand: seeded(seed)})
		if err != nil {
			t.Fatalf("Cluster() error = %v", err)
		}
		if !res.Centroids.Contains(rgb.Color{}) || !res.Centroids.Contains(rgb.White) {
			t.Errorf("seed %d: centroids = %v, want black and white", seed, res.Centroids)
		}
	}
}

func TestClusterEmptyClustersBecomeWhite(t *testing.T) {
	c := rgb.Color{R: 40, G: 80, B: 120}
	pixels := []rgb.Color{c, c, c, c}

	res, err := Cluster(pixels, 3, Options{Rand: seeded(1)})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	want := palette.Palette{c, rgb.White, rgb.White}
	for i := range want {
		if res.Centroids[i] != want[i] {
			t.Fatalf("centroids = %v, want %v", res.Centroids, want)
		}
	}
	if !res.Converged || res.Iterations != 2 {
		t.Errorf("converged=%v iterations=%d, want true after 2", res.Converged, res.Iterations)
	}
}

func TestClusterWaitsForEveryCentroid(t *testing.T) {
	pixels := []rgb.Color{gray(0), gray(30), gray(200), gray(200)}
	// Initial centroids gray(30) and gray(200). The first pass moves cluster 0 to
	// gray(15) while the last cluster stays put.
	r := rand.New(&sequence{values: []uint64{1, 2}})

	res, err := Cluster(pixels, 2, Options{Rand: r})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if res.Iterations != 2 || !res.Converged {
		t.Errorf("converged=%v after %d iterations, want true after 2", res.Converged, res.Iterations)
	}
	want := palette.Palette{gray(15), gray(200)}
	if res.Centroids[0] != want[0] || res.Centroids[1] != want[1] {
		t.Errorf("centroids = %v, want %v", res.Centroids, want)
	}
}

func TestClusterMaxIterations(t *testing.T) {
	c := rgb.Color{R: 40, G: 80, B: 120}
	res, err := Cluster([]rgb.Color{c, c}, 2, Options{Rand: seeded(7), MaxIterations: 1})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if res.Converged || res.Iterations != 1 {
		t.Errorf("converged=%v iterations=%d, want false after 1", res.Converged, res.Iterations)
	}
	if len(res.Centroids) != 2 {
		t.Errorf("got %d centroids, want 2", len(res.Centroids))
	}
}

func TestClusterCentroidCountMatchesK(t *testing.T) {
	r := seeded(42)
	pixels := make([]rgb.Color, 500)
	for i := range pixels {
		pixels[i] = rgb.Color{R: uint8(r.IntN(256)), G: uint8(r.IntN(256)), B: uint8(r.IntN(256))}
	}
	for _, k := range []int{1, 4, 16, 600} {
		res, err := Cluster(pixels, k, Options{Rand: seeded(3), MaxIterations: 50})
		if err != nil {
			t.Fatalf("Cluster(k=%d) error = %v", k, err)
		}
		if len(res.Centroids) != k {
			t.Errorf("Cluster(k=%d) returned %d centroids", k, len(res.Centroids))
		}
	}
}

func TestClusterPreconditions(t *testing.T) {
	if _, err := Cluster([]rgb.Color{{}}, 0, Options{}); !errors.Is(err, ErrInvalidK) {
		t.Errorf("k=0 error = %v, want ErrInvalidK", err)
	}
	if _, err := Cluster(nil, 3, Options{}); !errors.Is(err, ErrNoPixels) {
		t.Errorf("no pixels error = %v, want ErrNoPixels", err)
	}
}

func gray(v uint8) rgb.Color {
	return rgb.Color{R: v, G: v, B: v}
}
