// Package archive assembles pipeline output into a single zip file.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/Eryk-dev/svg-crop-api/pipeline"
)

// Filename is the fixed name reported for the assembled archive.
const Filename = "cropped_images.zip"

// Error wraps any failure while writing the archive.
type Error struct {
	Member string
	Err    error
}

func (e *Error) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("writing archive: %s", e.Err)
	}
	return fmt.Sprintf("writing archive member %s: %s", e.Member, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Build writes every cropped image and its mask into a zip archive.
// Member names are region_<n>.<ext> and region_<n>_mask.png, where n
// is the region ordinal in document order; gaps from failed regions
// are preserved so names stay stable across partial runs.
func Build(results []pipeline.CroppedResult) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, r := range results {
		name := fmt.Sprintf("region_%d.%s", r.Index, r.Format.Ext())
		if err := writeMember(zw, name, r.ImageBytes); err != nil {
			return nil, err
		}
		maskName := fmt.Sprintf("region_%d_mask.png", r.Index)
		if err := writeMember(zw, maskName, r.MaskBytes); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, &Error{Err: err}
	}
	return buf.Bytes(), nil
}

func writeMember(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return &Error{Member: name, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &Error{Member: name, Err: err}
	}
	return nil
}
