package merit

import (
	"math"
	"math/rand"
)

// PupilSample is one normalized entrance-pupil coordinate pair. Px and Py
// lie inside the unit circle; Weight scales the sample's residuals in the
// merit function (zero means 1).
type PupilSample struct {
	Px, Py float64
	Weight float64
}

// GridSample places samples on an n by n Cartesian grid over the pupil and
// keeps the points inside the unit circle.
func GridSample(n int) []PupilSample {
	if n < 1 {
		n = 1
	}
	var out []PupilSample
	for iy := 0; iy < n; iy++ {
		for ix := 0; ix < n; ix++ {
			px, py := gridCoord(ix, n), gridCoord(iy, n)
			if px*px+py*py > 1+1e-12 {
				continue
			}
			out = append(out, PupilSample{Px: px, Py: py, Weight: 1})
		}
	}
	return out
}

func gridCoord(i, n int) float64 {
	if n == 1 {
		return 0
	}
	return -1 + 2*float64(i)/float64(n-1)
}

// HexapolarSample places one sample on axis and six per ring on each of the
// given number of equally spaced rings, the classic near-equal-area pupil
// pattern. A ring at radius r carries 6r samples rounded to a multiple of 6.
func HexapolarSample(rings int) []PupilSample {
	out := []PupilSample{{Weight: 1}}
	for k := 1; k <= rings; k++ {
		r := float64(k) / float64(rings)
		m := 6 * k
		for j := 0; j < m; j++ {
			th := 2 * math.Pi * float64(j) / float64(m)
			out = append(out, PupilSample{
				Px:     r * math.Cos(th),
				Py:     r * math.Sin(th),
				Weight: 1,
			})
		}
	}
	return out
}

// RandomSample draws n uniform samples from the unit disk. The same seed
// reproduces the same set.
func RandomSample(n int, seed int64) []PupilSample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]PupilSample, 0, n)
	for len(out) < n {
		px := 2*rng.Float64() - 1
		py := 2*rng.Float64() - 1
		if px*px+py*py > 1 {
			continue
		}
		out = append(out, PupilSample{Px: px, Py: py, Weight: 1})
	}
	return out
}
