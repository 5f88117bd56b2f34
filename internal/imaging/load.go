// Package imaging handles image intake for analysis submission: content-type
// checks, DICOM ophthalmic photography extraction and terminal previews.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is the payload handed to the analysis service, plus what the upload
// screen needs to render a local preview.
type Image struct {
	Filename    string
	Data        []byte
	ContentType string
	Size        int64
}

// Load reads an image file and verifies it is usable for submission. Regular
// raster files must carry an image content type. Files with a .dcm extension
// are treated as DICOM ophthalmic photography and the first pixel frame is
// extracted as the submitted image.
func Load(path string) (*Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".dcm") {
		return loadDICOM(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	contentType := detectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%s is not an image file (detected %s)", filepath.Base(path), contentType)
	}

	return &Image{
		Filename:    filepath.Base(path),
		Data:        data,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// loadDICOM extracts the fundus photograph embedded in a DICOM file. An
// encapsulated frame (typically JPEG) is submitted as-is; a native frame is
// re-encoded as PNG.
func loadDICOM(path string) (*Image, error) {
	dataset, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing DICOM file: %w", err)
	}

	pixelDataElement, err := dataset.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("DICOM file carries no pixel data: %w", err)
	}

	info := dicom.MustGetPixelDataInfo(pixelDataElement.Value)
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("DICOM file carries no image frames")
	}

	fr := info.Frames[0]
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if fr.IsEncapsulated() {
		data := fr.EncapsulatedData.Data
		contentType := detectContentType(data)
		if !strings.HasPrefix(contentType, "image/") {
			return nil, fmt.Errorf("encapsulated DICOM frame is not a supported image (detected %s)", contentType)
		}
		return &Image{
			Filename:    base + extensionFor(contentType),
			Data:        data,
			ContentType: contentType,
			Size:        int64(len(data)),
		}, nil
	}

	img, err := fr.GetImage()
	if err != nil {
		return nil, fmt.Errorf("decoding native DICOM frame: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding DICOM frame as PNG: %w", err)
	}

	return &Image{
		Filename:    base + ".png",
		Data:        buf.Bytes(),
		ContentType: "image/png",
		Size:        int64(buf.Len()),
	}, nil
}

// Decode parses the image pixels for preview rendering.
func (i *Image) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(i.Data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", i.Filename, err)
	}
	return img, nil
}

func detectContentType(data []byte) string {
	return http.DetectContentType(data)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".img"
	}
}
