package devblog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	uploadsSubdir = "uploads"
)

func imagesDir(contentDir string) string { return filepath.Join(contentDir, "images") }
func uploadsDir(staticDir string) string { return filepath.Join(staticDir, uploadsSubdir) }

// ImageResult describes one optimized image.
type ImageResult struct {
	Filename string
	Width    int
	Height   int
	Size     int
}

// processImage decodes an image from src, shrinks it to maxImageWidth if
// wider, and encodes it as JPEG.
func processImage(src io.Reader) (ImageResult, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return ImageResult{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return ImageResult{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return ImageResult{Width: w, Height: h, Size: buf.Len()}, buf.Bytes(), nil
}

func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}

// OptimizedName maps a source image name to its output file name.
func OptimizedName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return Slugify(base) + ".jpg"
}

// OptimizeImages converts every image in src into a resized JPEG in dst.
// Outputs newer than their source are left alone. A missing src is not an
// error. Images that fail to decode are logged and skipped.
func OptimizeImages(ctx context.Context, src, dst string, logger *slog.Logger) ([]ImageResult, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var results []ImageResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if entry.IsDir() || !isImage(entry.Name()) {
			continue
		}
		in := filepath.Join(src, entry.Name())
		out := filepath.Join(dst, OptimizedName(entry.Name()))
		if upToDate(in, out) {
			continue
		}
		res, err := optimizeFile(in, out)
		if err != nil {
			logger.Warn("skipping image", "path", in, "error", err)
			continue
		}
		logger.Debug("optimized image", "path", out, "width", res.Width, "bytes", res.Size)
		results = append(results, res)
	}
	return results, nil
}

func optimizeFile(in, out string) (ImageResult, error) {
	f, err := os.Open(in)
	if err != nil {
		return ImageResult{}, err
	}
	defer f.Close()

	res, data, err := processImage(f)
	if err != nil {
		return ImageResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return ImageResult{}, fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return ImageResult{}, fmt.Errorf("write image: %w", err)
	}
	res.Filename = filepath.Base(out)
	return res, nil
}

func upToDate(in, out string) bool {
	si, err := os.Stat(in)
	if err != nil {
		return false
	}
	so, err := os.Stat(out)
	if err != nil {
		return false
	}
	return !so.ModTime().Before(si.ModTime())
}
