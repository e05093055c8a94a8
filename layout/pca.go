// Package layout projects group centroid embeddings into 3-D space: PCA
// for a deterministic initial layout, then a force-directed relaxation for
// visual separation, using gonum.org/v1/gonum for the linear algebra.
package layout

import (
	"gonum.org/v1/gonum/mat"
)

// pcaInit mean-centers the rows of embeddings and projects them onto their
// top three principal components. Eigenvector signs are fixed so that the
// largest-magnitude coordinate of each component is positive, making the
// result deterministic.
func pcaInit(embeddings [][]float64) [][3]float64 {
	n := len(embeddings)
	if n == 0 {
		return nil
	}
	dim := len(embeddings[0])

	mean := make([]float64, dim)
	for _, row := range embeddings {
		for d, v := range row {
			mean[d] += v
		}
	}
	for d := range mean {
		mean[d] /= float64(n)
	}

	centered := mat.NewDense(n, dim, nil)
	for i, row := range embeddings {
		for d, v := range row {
			centered.Set(i, d, v-mean[d])
		}
	}

	components := topComponents(centered, n, dim, 3)

	positions := make([][3]float64, n)
	for i := 0; i < n; i++ {
		for k := 0; k < 3; k++ {
			var sum float64
			for d := 0; d < dim; d++ {
				sum += centered.At(i, d) * components[k][d]
			}
			positions[i][k] = sum
		}
	}
	return positions
}

// topComponents returns the top k eigenvectors of the covariance matrix of
// centered (n x dim), sign-fixed so the largest-magnitude entry is positive.
func topComponents(centered *mat.Dense, n, dim, k int) [][]float64 {
	if k > dim {
		k = dim
	}

	cov := mat.NewSymDense(dim, nil)
	for a := 0; a < dim; a++ {
		for b := a; b < dim; b++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += centered.At(i, a) * centered.At(i, b)
			}
			value := sum / float64(maxInt(n-1, 1))
			cov.SetSym(a, b, value)
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(cov, true)
	if !ok {
		return identityComponents(dim, k)
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, dim)
	for i := range order {
		order[i] = i
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if values[order[j]] > values[order[i]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}

	components := make([][]float64, k)
	for idx := 0; idx < k; idx++ {
		col := order[idx]
		vec := make([]float64, dim)
		maxAbs, maxAt := 0.0, 0
		for d := 0; d < dim; d++ {
			vec[d] = vectors.At(d, col)
			if abs(vec[d]) > maxAbs {
				maxAbs = abs(vec[d])
				maxAt = d
			}
		}
		if vec[maxAt] < 0 {
			for d := range vec {
				vec[d] = -vec[d]
			}
		}
		components[idx] = vec
	}
	return components
}

func identityComponents(dim, k int) [][]float64 {
	components := make([][]float64, k)
	for i := 0; i < k; i++ {
		vec := make([]float64, dim)
		if i < dim {
			vec[i] = 1
		}
		components[i] = vec
	}
	return components
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
