package codec

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minview/internal/minutiae"
)

func TestFormatForPath(t *testing.T) {
	cases := map[string]Format{
		"print.sim":     Simple,
		"print.min":     NBIST,
		"dir/print.MIN": NBIST,
		"print.xyt":     XYT,
	}
	for path, want := range cases {
		got, err := FormatForPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatForPath("print.xyz")
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ".xyz", unsupported.Ext)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = FormatForPath("noext")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("MINDTCT")
	require.NoError(t, err)
	assert.Equal(t, MINDTCT, f)
	assert.Equal(t, ".min", f.Ext())

	_, err = ParseFormat("wsq")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSimple_EncodeExample(t *testing.T) {
	c := minutiae.NewCollection(minutiae.New(100, 200, 45.0, minutiae.Bifurcation, 0.8))
	text, err := Encode(Simple, c, image.Point{})
	require.NoError(t, err)
	assert.Equal(t, "100 200 45.0 BIF 0.8", text)

	decoded, err := Decode(Simple, text)
	require.NoError(t, err)
	assert.Equal(t, c.All(), decoded.All())
}

func TestSimple_RoundTripIsExact(t *testing.T) {
	c := minutiae.NewCollection(
		minutiae.New(1, 2, 12.345678, minutiae.RidgeEnding, 0.123),
		minutiae.New(300, 4, 359.5, minutiae.Bifurcation, 1),
		minutiae.New(0, 0, 0, minutiae.RidgeEnding, 0),
	)
	text, err := Encode(Simple, c, image.Point{})
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(text, "\n"), "no trailing newline after the last line")
	assert.Equal(t, "1 2 12.345678 END 0.123\n300 4 359.5 BIF 1.0\n0 0 0.0 END 0.0", text)

	decoded, err := Decode(Simple, text)
	require.NoError(t, err)
	assert.Equal(t, c.All(), decoded.All())
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		0:       "0.0",
		45:      "45.0",
		0.8:     "0.8",
		12.345:  "12.345",
		0.0001:  "0.0001",
		0.00001: "1e-05",
		1.5e-07: "1.5e-07",
		1e15:    "1000000000000000.0",
		1e16:    "1e+16",
	}
	for v, want := range tests {
		assert.Equal(t, want, formatFloat(v), "%v", v)
	}
}

func TestSimple_TinyQualityRoundTrips(t *testing.T) {
	c := minutiae.NewCollection(minutiae.New(5, 6, 0.00002, minutiae.RidgeEnding, 0.00001))
	text, err := Encode(Simple, c, image.Point{})
	require.NoError(t, err)
	assert.Equal(t, "5 6 2e-05 END 1e-05", text)

	decoded, err := Decode(Simple, text)
	require.NoError(t, err)
	assert.Equal(t, c.All(), decoded.All())
}

func TestSimple_DecodeDefaultsQuality(t *testing.T) {
	c, err := Decode(Simple, "10 20 90 END\r\n\n30 40 180.5 bif 0.5\n")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, minutiae.DefaultQuality, c.At(0).Quality)
	assert.Equal(t, minutiae.Bifurcation, c.At(1).Type)
}

func TestSimple_DecodeErrors(t *testing.T) {
	cases := []string{
		"10 20 90 RIG 1.0",
		"10 20",
		"ten 20 90 END 1.0",
		"10 20 north END 1.0",
		"10 -20 90 END 1.0",
		"10 20 90 END high",
	}
	for _, text := range cases {
		_, err := Decode(Simple, text)
		var corruptErr *CorruptFileError
		require.ErrorAs(t, err, &corruptErr, text)
		assert.Equal(t, 1, corruptErr.Line, text)
		assert.ErrorIs(t, err, ErrCorruptFile)
	}
}

func TestEncode_UnknownTypeFails(t *testing.T) {
	c := minutiae.NewCollection(minutiae.Minutia{X: 1, Y: 1, Type: minutiae.TypeUnknown, Quality: 1})
	for _, f := range []Format{Simple, NBIST} {
		_, err := Encode(f, c, image.Pt(10, 10))
		assert.ErrorIs(t, err, ErrCorruptFile, f.String())
	}
}

func TestNBIST_EncodeLayout(t *testing.T) {
	c := minutiae.NewCollection(
		minutiae.New(100, 200, 45, minutiae.Bifurcation, 0.8),
		minutiae.New(30, 40, 90, minutiae.RidgeEnding, 1),
	)
	text, err := Encode(NBIST, c, image.Pt(512, 480))
	require.NoError(t, err)

	want := "Image (w,h) 512 480\n" +
		"\n" +
		"2 Minutiae Detected\n" +
		"\n" +
		" 0 :  100,  200 : 4 :  0.8 :BIF : This file is incomplete\n" +
		" 1 :  30,  40 : 8 :  1.0 :RIG : This file is incomplete\n"
	assert.Equal(t, want, text)

	dims, ok := Header(text)
	require.True(t, ok)
	assert.Equal(t, image.Pt(512, 480), dims)
}

func TestNBIST_RoundTripQuantizedAngles(t *testing.T) {
	c := minutiae.NewCollection()
	for i := 0; i < AngleSteps; i++ {
		typ := minutiae.RidgeEnding
		if i%2 == 0 {
			typ = minutiae.Bifurcation
		}
		c.Append(minutiae.New(i*3, i*5, float64(i)*AngleStep, typ, 0.25))
	}

	text, err := Encode(NBIST, c, image.Pt(256, 256))
	require.NoError(t, err)
	decoded, err := Decode(NBIST, text)
	require.NoError(t, err)
	assert.Equal(t, c.All(), decoded.All())
}

func TestNBIST_AngleQuantizationRounds(t *testing.T) {
	// 50 / 11.25 = 4.44 -> 4 -> 45
	assert.Equal(t, 4, QuantizeAngle(50))
	assert.Equal(t, 45.0, DequantizeAngle(QuantizeAngle(50)))
	// 5.625 / 11.25 = 0.5 -> rounds to even
	assert.Equal(t, 0, QuantizeAngle(5.625))
	assert.Equal(t, 2, QuantizeAngle(28.125))
	// the last half step wraps back to north
	assert.Equal(t, 0, QuantizeAngle(358))
}

func TestNBIST_DecodeMindtctOutput(t *testing.T) {
	text := `Image (w,h) 416 416

2 Minutiae Detected

   0 :  133,   22 :  6 :  0.13 :  RIG : 0,52; 1,68
   1 :   38,  170 : 23 :  0.48 :  BIF : 0,89
`
	c, err := Decode(MINDTCT, text)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, minutiae.New(133, 22, 67.5, minutiae.RidgeEnding, 0.13), c.At(0))
	assert.Equal(t, minutiae.New(38, 170, 258.75, minutiae.Bifurcation, 0.48), c.At(1))
}

func TestNBIST_DecodeErrors(t *testing.T) {
	cases := []string{
		" 0 :  100,  200 : 4 :  0.8 :END : x",
		" 0 :  100  200 : 4 :  0.8 :BIF : x",
		" 0 :  100,  200 : 4",
		" a :  100,  200 : 4 :  0.8 :BIF : x",
	}
	for _, text := range cases {
		_, err := Decode(NBIST, text)
		assert.ErrorIs(t, err, ErrCorruptFile, text)
	}
}

func TestXYT_Encode(t *testing.T) {
	c := minutiae.NewCollection(
		minutiae.New(10, 20, 270.7, minutiae.Bifurcation, 0.29),
		minutiae.New(5, 6, 45, minutiae.RidgeEnding, 1),
	)
	text, err := Encode(XYT, c, image.Point{})
	require.NoError(t, err)
	assert.Equal(t, "10 20 90 28\n5 6 45 100", text)

	decoded, err := Decode(XYT, text)
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Len())
	assert.Equal(t, 90.0, decoded.At(0).Angle)
	assert.InDelta(t, 0.28, decoded.At(0).Quality, 1e-9)
	assert.Equal(t, minutiae.RidgeEnding, decoded.At(0).Type)
}

func TestWriteFile_UnknownExtensionWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "print.xyz")
	c := minutiae.NewCollection(minutiae.New(1, 1, 0, minutiae.RidgeEnding, 1))

	err := WriteFile(path, c, image.Pt(10, 10))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFile_EncodeFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "print.sim")
	c := minutiae.NewCollection(minutiae.Minutia{X: 1, Y: 1})

	require.Error(t, WriteFile(path, c, image.Point{}))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	c := minutiae.NewCollection(
		minutiae.New(12, 34, 11.25, minutiae.Bifurcation, 0.5),
		minutiae.New(56, 78, 180, minutiae.RidgeEnding, 1),
	)

	for _, name := range []string{"a.sim", "a.min"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, c, image.Pt(100, 100)))
		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, c.All(), got.All(), name)
	}

	_, err := ReadFile(filepath.Join(dir, "missing.sim"))
	assert.Error(t, err)
}
