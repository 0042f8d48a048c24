package app

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"wall-inspector/internal/domain/entity"
)

// DefaultMaxPixels предел размера изображения в пикселях
const DefaultMaxPixels = 50_000_000

// DecodeUpload проверяет расширение, формат и размер, затем декодирует изображение с учётом EXIF-ориентации.
// Имя файла может быть пустым (фото из Telegram), тогда проверяется только содержимое.
// maxPixels <= 0 означает DefaultMaxPixels.
func DecodeUpload(filename string, data []byte, accepted []string, maxPixels int) (*entity.Upload, error) {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); filename != "" {
		if !extensionAccepted(ext, accepted) {
			return nil, fmt.Errorf("%w: extension %q", entity.ErrUnsupportedFormat, ext)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", entity.ErrInvalidImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}

	// Размер проверяется по заголовку, до выделения памяти под пиксели
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty dimensions %dx%d", entity.ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", entity.ErrInvalidImage, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}

	return &entity.Upload{
		Filename: filename,
		Data:     data,
		Format:   format,
		Image:    img,
	}, nil
}

func extensionAccepted(ext string, accepted []string) bool {
	for _, a := range accepted {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return true
		}
	}
	return false
}

// extensionFor расширение временного файла для формата
func extensionFor(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}
