package layout

import (
	"math"

	"mindmap3d/domain/concept"
)

const (
	attractionConstant = 2.0
	repulsionConstant  = 10.0
	repulsionEps       = 0.01
	gravityConstant    = 0.1
	damping            = 0.9
	velocityClamp      = 2.0
	timestep           = 1.0
	maxIterations      = 150
	convergenceDelta   = 0.001
	convergenceStreak  = 3
	targetMaxCoordinate = 10.0
)

// Engine produces deterministic 3-D positions for group centroids.
type Engine struct{}

// New creates a layout Engine.
func New() *Engine {
	return &Engine{}
}

// Layout projects centroids via PCA, relaxes the result with a
// force-directed simulation driven by the group similarity matrix, and
// rescales so the largest absolute coordinate equals 10.
func (e *Engine) Layout(centroids [][]float64, similarity [][]float64) ([]concept.Position, error) {
	positions := pcaInit(centroids)
	relaxed := e.simulate(positions, similarity)
	rescale(relaxed)

	out := make([]concept.Position, len(relaxed))
	for i, p := range relaxed {
		pos, err := concept.NewPosition(p[0], p[1], p[2])
		if err != nil {
			return nil, err
		}
		out[i] = pos
	}
	return out, nil
}

func (e *Engine) simulate(positions [][3]float64, similarity [][]float64) [][3]float64 {
	n := len(positions)
	if n == 0 {
		return positions
	}
	velocities := make([][3]float64, n)
	belowThresholdStreak := 0

	for iter := 0; iter < maxIterations; iter++ {
		forces := make([][3]float64, n)

		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				delta := sub(positions[j], positions[i])
				dist := magnitude(delta)
				if dist < 1e-9 {
					dist = 1e-9
				}
				direction := scale(delta, 1/dist)

				attractionMag := attractionConstant * similarity[i][j] * dist
				forces[i] = add(forces[i], scale(direction, attractionMag))

				repulsionMag := repulsionConstant / math.Max(dist*dist, repulsionEps)
				forces[i] = add(forces[i], scale(direction, -repulsionMag))
			}

			gravityMag := gravityConstant * magnitude(positions[i])
			if magnitude(positions[i]) > 1e-9 {
				towardOrigin := scale(positions[i], -gravityMag/magnitude(positions[i]))
				forces[i] = add(forces[i], towardOrigin)
			}
		}

		maxDelta := 0.0
		for i := 0; i < n; i++ {
			velocities[i] = scale(add(velocities[i], scale(forces[i], timestep)), damping)
			if magnitude(velocities[i]) > velocityClamp {
				velocities[i] = scale(velocities[i], velocityClamp/magnitude(velocities[i]))
			}

			step := scale(velocities[i], timestep)
			positions[i] = add(positions[i], step)

			if d := magnitude(step); d > maxDelta {
				maxDelta = d
			}
		}

		if maxDelta < convergenceDelta {
			belowThresholdStreak++
			if belowThresholdStreak >= convergenceStreak {
				break
			}
		} else {
			belowThresholdStreak = 0
		}
	}

	return positions
}

func rescale(positions [][3]float64) {
	maxAbs := 0.0
	for _, p := range positions {
		for _, c := range p {
			if math.Abs(c) > maxAbs {
				maxAbs = math.Abs(c)
			}
		}
	}
	if maxAbs < 1e-9 {
		return
	}
	factor := targetMaxCoordinate / maxAbs
	for i := range positions {
		positions[i] = scale(positions[i], factor)
	}
}

func add(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func scale(a [3]float64, f float64) [3]float64 {
	return [3]float64{a[0] * f, a[1] * f, a[2] * f}
}

func magnitude(a [3]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}
