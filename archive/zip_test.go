package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/Eryk-dev/svg-crop-api/crop"
	"github.com/Eryk-dev/svg-crop-api/pipeline"
)

func TestBuildNaming(t *testing.T) {
	// region 1 failed upstream: member names keep the document ordinals
	results := []pipeline.CroppedResult{
		{Index: 0, ImageBytes: []byte("img0"), MaskBytes: []byte("mask0"), Format: crop.PNG},
		{Index: 2, ImageBytes: []byte("img2"), MaskBytes: []byte("mask2"), Format: crop.JPEG},
	}
	data, err := Build(results)
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"region_0.png":      "img0",
		"region_0_mask.png": "mask0",
		"region_2.jpeg":     "img2",
		"region_2_mask.png": "mask2",
	}
	if len(zr.File) != len(want) {
		t.Fatalf("archive holds %d members, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		content, ok := want[f.Name]
		if !ok {
			t.Errorf("unexpected member %q", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("member %q holds %q, want %q", f.Name, got, content)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	data, err := Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 0 {
		t.Errorf("empty build produced %d members", len(zr.File))
	}
}
