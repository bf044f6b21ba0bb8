package toolio

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eikonal-bridge/dee/internal/prescription"
)

func TestCodeVSinglet(t *testing.T) {
	p := prescription.GetPreset("singlet")
	require.NotNil(t, p)

	seq := CodeV(p)

	assert.Contains(t, seq, "LEN NEW")
	assert.Contains(t, seq, "TIT 'singlet'")
	assert.Contains(t, seq, "EPD 20.000000")
	assert.Contains(t, seq, "WL 587.60")
	assert.Contains(t, seq, "NBK7", "glass token should drop the hyphen")
	assert.Contains(t, seq, "S1 60.000000")
	assert.True(t, strings.HasSuffix(seq, "GO\n"))
}

func TestCodeVFlatSurfaceIsInfinity(t *testing.T) {
	p := prescription.GetPreset("interferometer")
	require.NotNil(t, p)

	seq := CodeV(p)
	assert.Contains(t, seq, "INFINITY")
}

func TestCodeVMirror(t *testing.T) {
	p := prescription.GetPreset("mirror")
	require.NotNil(t, p)

	seq := CodeV(p)
	assert.Contains(t, seq, "REFL")
	assert.Contains(t, seq, "K -1.000000", "conic constant should be written")
}

func TestZemaxSinglet(t *testing.T) {
	p := prescription.GetPreset("singlet")
	require.NotNil(t, p)

	zmx := Zemax(p)

	assert.Contains(t, zmx, "MODE SEQ")
	assert.Contains(t, zmx, "NAME singlet")
	assert.Contains(t, zmx, "ENPD 20.000000")
	assert.Contains(t, zmx, "WAVM 1 0.587600 1")
	assert.Contains(t, zmx, "GLAS N-BK7")
	assert.Contains(t, zmx, "DISZ INFINITY")
	// Object, two lens surfaces, image.
	assert.Equal(t, 4, strings.Count(zmx, "SURF "))
}

func TestZemaxStopAndConic(t *testing.T) {
	p := prescription.GetPreset("triplet")
	require.NotNil(t, p)
	assert.Contains(t, Zemax(p), "  STOP\n")

	m := prescription.GetPreset("mirror")
	require.NotNil(t, m)
	zmx := Zemax(m)
	assert.Contains(t, zmx, "CONI")
	assert.Contains(t, zmx, "GLAS MIRROR")
}

func TestRSoftFromPrescription(t *testing.T) {
	p := prescription.GetPreset("interferometer")
	require.NotNil(t, p)

	st, err := RSoftFromPrescription(p)
	require.NoError(t, err)
	require.Len(t, st.Slabs, 2)

	// 10 mm fused-silica plate then 50 mm of air, in µm.
	assert.InDelta(t, 10000, st.Slabs[0].Length, 1e-9)
	assert.Equal(t, "SIO2", st.Slabs[0].Label)
	assert.Greater(t, st.Slabs[0].Index, 1.4)
	assert.InDelta(t, 50000, st.Slabs[1].Length, 1e-9)
	assert.InDelta(t, 1.0, st.Slabs[1].Index, 1e-12)

	ind := st.Render()
	assert.Contains(t, ind, "free_space_wavelength = 0.632800")
	assert.Contains(t, ind, "structure_length = 60000.000000")
	assert.Contains(t, ind, "segment 1")
	assert.Contains(t, ind, "end segment")
}

func TestRSoftRejectsMirrors(t *testing.T) {
	p := prescription.GetPreset("mirror")
	require.NotNil(t, p)

	_, err := RSoftFromPrescription(p)
	assert.Error(t, err)
}

func TestJSONDump(t *testing.T) {
	p := prescription.GetPreset("doublet")
	require.NotNil(t, p)

	data, err := JSON(p)
	require.NoError(t, err)

	var d DesignDump
	require.NoError(t, json.Unmarshal(data, &d))

	assert.Equal(t, "doublet", d.Name)
	require.Len(t, d.Surfaces, 3)
	assert.Equal(t, "N-BK7", d.Surfaces[0].Glass)
	assert.Greater(t, d.Surfaces[0].Index, 1.5)
	assert.InDelta(t, 1.0, d.Surfaces[2].Index, 1e-12, "air gap should resolve to unit index")
	assert.InDelta(t, 1/61.47, d.Surfaces[0].Curvature, 1e-12)
}

func TestWritersAreDeterministic(t *testing.T) {
	p := prescription.GetPreset("triplet")
	require.NotNil(t, p)

	assert.Equal(t, CodeV(p), CodeV(p))
	assert.Equal(t, Zemax(p), Zemax(p))

	a, err := JSON(p)
	require.NoError(t, err)
	b, err := JSON(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
