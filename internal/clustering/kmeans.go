package clustering

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

const (
	DefaultSeed          uint64 = 42
	DefaultRestarts             = 10
	DefaultMaxIterations        = 300
	DefaultTolerance            = 1e-4
)

var errNoPoints = errors.New("kmeans: no points")

// KMeans partitions points into K groups with Lloyd's algorithm and k-means++ seeding.
// A zero value field falls back to its Default constant, except K.
type KMeans struct {
	K             int
	Seed          uint64
	Restarts      int
	MaxIterations int
	Tolerance     float64
}

// Fit is the outcome of the best restart.
type Fit struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

func (km KMeans) withDefaults() KMeans {
	if km.Seed == 0 {
		km.Seed = DefaultSeed
	}
	if km.Restarts <= 0 {
		km.Restarts = DefaultRestarts
	}
	if km.MaxIterations <= 0 {
		km.MaxIterations = DefaultMaxIterations
	}
	if km.Tolerance <= 0 {
		km.Tolerance = DefaultTolerance
	}
	return km
}

// Fit runs all restarts from one seeded source and keeps the lowest inertia.
// Earlier restarts win ties. Labels are renumbered in order of first appearance.
func (km KMeans) Fit(points [][]float64) (Fit, error) {
	km = km.withDefaults()

	if len(points) == 0 {
		return Fit{}, errNoPoints
	}
	if km.K <= 0 || km.K > len(points) {
		return Fit{}, fmt.Errorf("kmeans: k=%d out of range for %d points", km.K, len(points))
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return Fit{}, fmt.Errorf("kmeans: point %d has %d dimensions, want %d", i, len(p), dim)
		}
	}

	rng := rand.New(rand.NewPCG(km.Seed, km.Seed^0x9e3779b97f4a7c15))
	tol := km.Tolerance * meanVariance(points)

	var best Fit
	for run := 0; run < km.Restarts; run++ {
		fit := km.lloyd(points, seedPlusPlus(points, km.K, rng), tol)
		if run == 0 || fit.Inertia < best.Inertia {
			best = fit
		}
	}

	relabel(&best)
	return best, nil
}

func (km KMeans) lloyd(points, centroids [][]float64, tol float64) Fit {
	labels := make([]int, len(points))
	dim := len(points[0])

	for iter := 0; iter < km.MaxIterations; iter++ {
		assign(points, centroids, labels)

		next := make([][]float64, km.K)
		counts := make([]int, km.K)
		for c := range next {
			next[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(next[labels[i]], p)
			counts[labels[i]]++
		}

		used := make(map[int]struct{})
		for c := range next {
			if counts[c] > 0 {
				floats.Scale(1/float64(counts[c]), next[c])
				continue
			}
			// An empty cluster takes over the point farthest from its centroid.
			far := farthest(points, centroids, labels, used)
			used[far] = struct{}{}
			copy(next[c], points[far])
		}

		shift := 0.0
		for c := range next {
			d := floats.Distance(next[c], centroids[c], 2)
			shift += d * d
		}
		centroids = next

		if shift <= tol {
			break
		}
	}

	inertia := assign(points, centroids, labels)
	return Fit{Labels: labels, Centroids: centroids, Inertia: inertia}
}

// assign writes the nearest centroid per point into labels and returns the inertia.
// Ties go to the lowest centroid index.
func assign(points, centroids [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, p := range points {
		bestC, bestD := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(p, centroid); d < bestD {
				bestC, bestD = c, d
			}
		}
		labels[i] = bestC
		inertia += bestD
	}
	return inertia
}

func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(dist)

		next := rng.IntN(len(points))
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}

		centroids = append(centroids, clone(points[next]))
		for i, p := range points {
			if d := sqDist(p, points[next]); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

func farthest(points, centroids [][]float64, labels []int, used map[int]struct{}) int {
	idx, maxD := 0, -1.0
	for i, p := range points {
		if _, ok := used[i]; ok {
			continue
		}
		if d := sqDist(p, centroids[labels[i]]); d > maxD {
			idx, maxD = i, d
		}
	}
	return idx
}

// relabel renumbers clusters by first appearance so equal partitions get equal ids.
func relabel(fit *Fit) {
	mapping := make(map[int]int, len(fit.Centroids))
	order := make([][]float64, 0, len(fit.Centroids))
	for i, l := range fit.Labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
			order = append(order, fit.Centroids[l])
		}
		fit.Labels[i] = id
	}
	for c, centroid := range fit.Centroids {
		if _, ok := mapping[c]; !ok {
			order = append(order, centroid)
		}
	}
	fit.Centroids = order
}

func meanVariance(points [][]float64) float64 {
	dim := len(points[0])
	mean := make([]float64, dim)
	for _, p := range points {
		floats.Add(mean, p)
	}
	floats.Scale(1/float64(len(points)), mean)

	total := 0.0
	for _, p := range points {
		total += sqDist(p, mean)
	}
	return total / float64(len(points)*dim)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
