package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minview/internal/catalog"
	"minview/internal/codec"
	"minview/internal/config"
	"minview/internal/datadir"
	"minview/internal/imageio"
	"minview/internal/mindtct"
	"minview/internal/minutiae"
	"minview/internal/remote"
	internalssh "minview/internal/ssh"
)

// writePrint writes a w x h gray PNG and returns its path
func writePrint(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 200})
		}
	}
	path := filepath.Join(dir, "print.png")
	require.NoError(t, imageio.SavePNG(path, img))
	return path
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunDraw(t *testing.T) {
	dir := t.TempDir()
	imgPath := writePrint(t, dir, 40, 30)
	minPath := writeFile(t, filepath.Join(dir, "print.sim"), "10 10 0.0 END 1.0\n20 15 90.0 BIF 0.5")
	out := filepath.Join(dir, "out", "drawn.png")

	cfg := config.Default()
	cfg.Display.MarkerSize = 8

	ctx := context.Background()
	require.NoError(t, runDraw(ctx, cfg, newStorage(remote.Config{}), imgPath, minPath, out))

	drawn, err := imageio.Load(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 30), drawn.Bounds().Size())

	// The overlay leaves colored pixels on the gray print
	colored := 0
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			r, g, b, _ := drawn.At(x, y).RGBA()
			if r != g || g != b {
				colored++
			}
		}
	}
	assert.Positive(t, colored)
}

func TestRunDraw_Errors(t *testing.T) {
	dir := t.TempDir()
	imgPath := writePrint(t, dir, 40, 30)
	ctx := context.Background()
	st := newStorage(remote.Config{})

	err := runDraw(ctx, config.Default(), st, imgPath, filepath.Join(dir, "print.sim"), filepath.Join(dir, "out.jpg"))
	assert.ErrorContains(t, err, ".png")

	err = runDraw(ctx, config.Default(), st, imgPath, filepath.Join(dir, "missing.sim"), filepath.Join(dir, "out.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, filepath.Join(dir, "bad.sim"), "10 10 zero END 1.0")
	err = runDraw(ctx, config.Default(), st, imgPath, bad, filepath.Join(dir, "out.png"))
	assert.ErrorIs(t, err, codec.ErrCorruptFile)
	assert.NoFileExists(t, filepath.Join(dir, "out.png"))
}

func TestRunConvert(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	st := newStorage(remote.Config{})
	sim := writeFile(t, filepath.Join(dir, "a.sim"), "100 200 45.0 BIF 0.8\n3 4 0.0 END 1.0")

	t.Run("NBISTNeedsDims", func(t *testing.T) {
		err := runConvert(ctx, st, sim, filepath.Join(dir, "a.min"), convertOptions{})
		assert.ErrorContains(t, err, "dimensions")
		assert.NoFileExists(t, filepath.Join(dir, "a.min"))
	})

	t.Run("SimpleToNBIST", func(t *testing.T) {
		out := filepath.Join(dir, "b.min")
		require.NoError(t, runConvert(ctx, st, sim, out, convertOptions{Dims: image.Pt(512, 480)}))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		dims, ok := codec.Header(string(data))
		require.True(t, ok)
		assert.Equal(t, image.Pt(512, 480), dims)

		c, err := codec.ReadFile(out)
		require.NoError(t, err)
		require.Equal(t, 2, c.Len())
		assert.Equal(t, minutiae.Bifurcation, c.At(0).Type)
	})

	t.Run("NBISTKeepsDims", func(t *testing.T) {
		out := filepath.Join(dir, "c.min")
		require.NoError(t, runConvert(ctx, st, filepath.Join(dir, "b.min"), out, convertOptions{}))
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		dims, _ := codec.Header(string(data))
		assert.Equal(t, image.Pt(512, 480), dims)
	})

	t.Run("DimsFromImage", func(t *testing.T) {
		imgPath := writePrint(t, dir, 64, 48)
		out := filepath.Join(dir, "d.min")
		require.NoError(t, runConvert(ctx, st, sim, out, convertOptions{ImagePath: imgPath}))
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		dims, _ := codec.Header(string(data))
		assert.Equal(t, image.Pt(64, 48), dims)
	})

	t.Run("ToXYT", func(t *testing.T) {
		out := filepath.Join(dir, "a.xyt")
		require.NoError(t, runConvert(ctx, st, sim, out, convertOptions{}))
		c, err := codec.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("UnknownExtension", func(t *testing.T) {
		err := runConvert(ctx, st, sim, filepath.Join(dir, "a.txt"), convertOptions{})
		assert.ErrorIs(t, err, codec.ErrUnsupportedFormat)
	})
}

func TestMinutiaePathFor(t *testing.T) {
	path, optional := minutiaePathFor("prints/a.png", nil)
	assert.Equal(t, "prints/a.min", path)
	assert.True(t, optional)

	path, optional = minutiaePathFor("prints/a.png", []string{"other.sim"})
	assert.Equal(t, "other.sim", path)
	assert.False(t, optional)

	path, _ = minutiaePathFor("s3://prints/a.bmp", nil)
	assert.Equal(t, "s3://prints/a.min", path)
}

func TestNewViewer(t *testing.T) {
	dir := t.TempDir()
	imgPath := writePrint(t, dir, 40, 30)
	ctx := context.Background()
	st := newStorage(remote.Config{})
	cfg := config.Default()

	t.Run("OptionalMinutiaeMissing", func(t *testing.T) {
		s, err := newViewer(ctx, cfg, st, viewerOptions{
			ImagePath:        imgPath,
			MinutiaePath:     mindtct.OutputPath(imgPath),
			MinutiaeOptional: true,
		})
		require.NoError(t, err)
		assert.Equal(t, image.Pt(40, 30), s.Dims())
		assert.Equal(t, 0, s.Collection().Len())
	})

	t.Run("ExplicitMinutiaeMissing", func(t *testing.T) {
		_, err := newViewer(ctx, cfg, st, viewerOptions{
			ImagePath:    imgPath,
			MinutiaePath: filepath.Join(dir, "missing.sim"),
		})
		assert.Error(t, err)
	})

	t.Run("LoadsMinutiae", func(t *testing.T) {
		minPath := writeFile(t, filepath.Join(dir, "print.sim"), "1 2 0.0 END 1.0")
		s, err := newViewer(ctx, cfg, st, viewerOptions{ImagePath: imgPath, MinutiaePath: minPath})
		require.NoError(t, err)
		assert.Equal(t, 1, s.Collection().Len())
	})

	t.Run("NoImage", func(t *testing.T) {
		s, err := newViewer(ctx, cfg, st, viewerOptions{})
		require.NoError(t, err)
		assert.Nil(t, s.Image())
	})
}

func TestStorage_RemoteNeedsEndpoint(t *testing.T) {
	st := newStorage(remote.Config{})
	_, err := st.Read(context.Background(), "s3://prints/a.png")
	assert.ErrorContains(t, err, "endpoint")
}

func TestStorage_LocalWriteCreatesDirs(t *testing.T) {
	st := newStorage(remote.Config{})
	path := filepath.Join(t.TempDir(), "nested", "a.png")
	require.NoError(t, st.Write(context.Background(), path, []byte("x")))
	data, err := st.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestExtractResults(t *testing.T) {
	results := []mindtct.Result{
		{Image: "a.png", Output: "a.min", Minutiae: 42},
		{Image: "b.png", Output: "b.min", Err: assert.AnError},
	}

	var buf bytes.Buffer
	printResults(&buf, results)
	out := buf.String()
	assert.Contains(t, out, "IMAGE")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, assert.AnError.Error())

	assert.EqualError(t, batchError(results), "1 of 2 images failed")
	assert.NoError(t, batchError(results[:1]))
}

func TestCatalogCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(datadir.EnvVar, filepath.Join(dir, "data"))
	dd, err := datadir.New("")
	require.NoError(t, err)

	store, err := catalog.Open(dd.CatalogPath())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	st := newStorage(remote.Config{})
	imgPath := writePrint(t, dir, 40, 30)
	minPath := writeFile(t, filepath.Join(dir, "print.sim"), "10 10 0.0 END 1.0\n20 15 90.0 BIF 0.5")

	_, err = addToCatalog(ctx, st, store, imgPath, minPath, "", catalog.Source("guess"))
	assert.Error(t, err)

	id, err := addToCatalog(ctx, st, store, imgPath, minPath, "left index", catalog.SourceManual)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, listCatalog(ctx, &buf, store, ""))
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), "left index")

	buf.Reset()
	require.NoError(t, listCatalog(ctx, &buf, store, "other.png"))
	assert.Contains(t, buf.String(), "No saved minutiae sets")

	buf.Reset()
	require.NoError(t, showCatalogEntry(ctx, &buf, store, id))
	assert.Contains(t, buf.String(), "Size:     40x30")
	assert.Contains(t, buf.String(), "bifurcation")

	t.Run("ExportDefault", func(t *testing.T) {
		path, err := exportCatalogEntry(ctx, st, store, dd, id, "")
		require.NoError(t, err)
		assert.Equal(t, dd.ExportDir(), filepath.Dir(path))
		assert.True(t, strings.HasSuffix(path, ".sim"))

		c, err := codec.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("ExportNBIST", func(t *testing.T) {
		out := filepath.Join(dir, "export.min")
		_, err := exportCatalogEntry(ctx, st, store, dd, id, out)
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		dims, _ := codec.Header(string(data))
		assert.Equal(t, image.Pt(40, 30), dims)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := exportCatalogEntry(ctx, st, store, dd, "nope", "")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
}

func TestListSSHKeys_Empty(t *testing.T) {
	dir := t.TempDir()
	_, authPath, err := internalssh.InitSSHKeys(filepath.Join(dir, "host_key"), filepath.Join(dir, "authorized_keys"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, listSSHKeys(&buf, authPath))
	assert.Contains(t, buf.String(), "No authorized keys found")
}

func TestReadKeyArg(t *testing.T) {
	key := "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIGb0 test@example"
	got, err := readKeyArg(key)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	path := writeFile(t, filepath.Join(t.TempDir(), "id.pub"), key+"\n")
	got, err = readKeyArg(path)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestSSHServerConfig(t *testing.T) {
	dir := t.TempDir()
	imgPath := writePrint(t, dir, 40, 30)

	cfg := config.Default()
	cfg.SSH.Image = imgPath

	sc := sshServerConfig(cfg, newStorage(remote.Config{}), nil)
	assert.Equal(t, ":2222", sc.ListenAddr)
	assert.Equal(t, mindtct.OutputPath(imgPath), sc.MinutiaePath)
	assert.Nil(t, sc.Catalog)

	// Each call yields an independent session
	a, err := sc.NewSession(context.Background())
	require.NoError(t, err)
	b, err := sc.NewSession(context.Background())
	require.NoError(t, err)
	a.Collection().Append(minutiae.New(1, 1, 0, minutiae.RidgeEnding, 1))
	assert.Equal(t, 0, b.Collection().Len())
}
