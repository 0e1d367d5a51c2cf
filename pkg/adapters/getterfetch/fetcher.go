// Package getterfetch retrieves remote sources with hashicorp/go-getter
// so plugins only ever see local files.
package getterfetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	getter "github.com/hashicorp/go-getter/v2"

	"github.com/user/frameio/pkg/ports"
)

func init() {
	// go-getter transparently decompresses by extension, which would hide
	// the original bytes from format resolution. The dispatcher owns
	// decompression; disable it here.
	getter.Decompressors = map[string]getter.Decompressor{}
}

// Fetcher implements ports.Fetcher using go-getter.
type Fetcher struct {
	client *getter.Client
	log    ports.Logger
}

// New creates a Fetcher.
func New(log ports.Logger) *Fetcher {
	return &Fetcher{
		client: &getter.Client{},
		log:    log.WithComponent("fetch"),
	}
}

// Fetch downloads src into dstDir and returns the local path. The cache
// file name is derived from the URL hash plus its base name, so repeated
// fetches of the same URL reuse one slot.
func (f *Fetcher) Fetch(ctx context.Context, src string, dstDir string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	sum := sha256.Sum256([]byte(src))
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		base = "source"
	}
	dst := filepath.Join(dstDir, hex.EncodeToString(sum[:8])+"-"+base)

	f.log.Debug("Fetching %s", src)
	req := &getter.Request{
		Src:     src,
		Dst:     dst,
		GetMode: getter.ModeFile,
	}
	res, err := f.client.Get(ctx, req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", src, err)
	}
	f.log.Debug("Fetched %s to %s", src, res.Dst)
	return res.Dst, nil
}

// Ensure Fetcher implements ports.Fetcher
var _ ports.Fetcher = (*Fetcher)(nil)
