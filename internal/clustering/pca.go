package clustering

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Project2D projects vectors onto their first two principal components.
// With fewer than two distinct vectors, or when the decomposition fails, every point is (0, 0).
// Component signs are fixed so the largest loading is positive, keeping plots stable between runs.
func Project2D(vectors [][]float64) [][2]float64 {
	out := make([][2]float64, len(vectors))
	if !spread(vectors) {
		return out
	}

	n, d := len(vectors), len(vectors[0])
	data := mat.NewDense(n, d, nil)
	for i, v := range vectors {
		data.SetRow(i, v)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return out
	}
	var components mat.Dense
	pc.VectorsTo(&components)
	_, cols := components.Dims()

	mean := make([]float64, d)
	for _, v := range vectors {
		floats.Add(mean, v)
	}
	floats.Scale(1/float64(n), mean)

	centered := make([]float64, d)
	for axis := 0; axis < 2 && axis < cols; axis++ {
		direction := mat.Col(nil, axis, &components)
		flipSign(direction)
		for i, v := range vectors {
			floats.SubTo(centered, v, mean)
			out[i][axis] = floats.Dot(centered, direction)
		}
	}

	return out
}

func flipSign(direction []float64) {
	idx, maxAbs := 0, 0.0
	for i, v := range direction {
		if a := math.Abs(v); a > maxAbs {
			idx, maxAbs = i, a
		}
	}
	if direction[idx] < 0 {
		floats.Scale(-1, direction)
	}
}

// spread reports whether at least two vectors differ.
func spread(vectors [][]float64) bool {
	for i := 1; i < len(vectors); i++ {
		if !floats.Equal(vectors[i], vectors[0]) {
			return true
		}
	}
	return false
}
