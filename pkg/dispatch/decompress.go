package dispatch

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// compressionExts are the transparently unpacked wrapper formats.
var compressionExts = map[string]bool{
	"gz":  true,
	"bz2": true,
	"xz":  true,
}

// isCompressedPath reports whether the path carries a compression
// wrapper extension.
func isCompressedPath(path string) bool {
	return compressionExts[compressionExt(path)]
}

// compressionExt returns the lowercased outermost extension without dot.
func compressionExt(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// decompress unpacks a gz/bz2/xz wrapped source into the cache and
// returns the path of the unpacked copy, named after the inner file so
// extension resolution sees the real format.
func (d *Dispatcher) decompress(srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open compressed source: %w", err)
	}
	defer src.Close()

	var r io.Reader
	switch compressionExt(srcPath) {
	case "gz":
		gz, err := gzip.NewReader(src)
		if err != nil {
			return "", fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	case "bz2":
		r = bzip2.NewReader(src)
	case "xz":
		xr, err := xz.NewReader(src)
		if err != nil {
			return "", fmt.Errorf("open xz stream: %w", err)
		}
		r = xr
	default:
		return "", fmt.Errorf("unsupported compression %q", compressionExt(srcPath))
	}

	inner := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	dstDir := filepath.Join(d.cacheDir, "unpacked")
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", fmt.Errorf("create unpack dir: %w", err)
	}
	dstPath := filepath.Join(dstDir, inner)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create unpacked file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("decompress %s: %w", srcPath, err)
	}
	return dstPath, nil
}
