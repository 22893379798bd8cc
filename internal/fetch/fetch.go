// Package fetch retrieves SVG documents and raster images over HTTP.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	// registered raster decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "svg-crop-api/1.0"

	// hard cap on any single download
	maxBodyBytes = 64 << 20
)

// Client downloads SVG sources and the raster images they reference.
// It implements pipeline.Fetcher.
type Client struct {
	hc *http.Client
}

// NewClient returns a Client backed by the given http.Client, or a
// default one with a 30s timeout when hc is nil.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{hc: hc}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("reading %s: body exceeds %d bytes", url, maxBodyBytes)
	}
	return body, nil
}

// FetchSVG downloads an SVG document and repairs a commented-out XML
// declaration, a mangling some export tools produce.
func (c *Client) FetchSVG(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return RepairDeclaration(body), nil
}

// RepairDeclaration rewrites <!--?xml ... ?--> back into a proper
// <?xml ... ?> declaration. Documents without the mangling pass
// through unchanged.
func RepairDeclaration(svg []byte) []byte {
	if !bytes.Contains(svg, []byte("<!--?xml")) {
		return svg
	}
	svg = bytes.Replace(svg, []byte("<!--?xml"), []byte("<?xml"), 1)
	svg = bytes.Replace(svg, []byte("?-->"), []byte("?>"), 1)
	return svg
}

// FetchImage downloads and decodes a raster image. The decoder is
// chosen by content sniffing, so png, jpeg, gif, webp, bmp and tiff
// all work regardless of the URL extension.
func (c *Client) FetchImage(ctx context.Context, url string) (image.Image, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", url, err)
	}
	return img, nil
}
