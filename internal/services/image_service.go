package services

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// receipt photos from phones run 5-12MP; 1600px is plenty for reading
const maxReceiptDimension = 1600

// ImageService normalizes uploaded receipt images
type ImageService struct{}

func NewImageService() *ImageService {
	return &ImageService{}
}

// ProcessReceipt decodes a receipt image, bounds its dimensions and
// re-encodes it as JPEG. The returned filename carries the new extension.
func (s *ImageService) ProcessReceipt(file multipart.File, header *multipart.FileHeader) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return nil, "", fmt.Errorf("unsupported image format (JPG/PNG only)")
	}

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxReceiptDimension || bounds.Dy() > maxReceiptDimension {
		img = imaging.Fit(img, maxReceiptDimension, maxReceiptDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}

	base := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	return buf.Bytes(), base + ".jpg", nil
}
