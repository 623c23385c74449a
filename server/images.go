package server

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var imageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/wsq",
	"image/x-portable-bitmap",
	"image/x-portable-graymap",
	"image/x-portable-anymap",
	"application/octet-stream",
}

// decodeImage accepts raw base64 or a data URI and returns the image bytes.
func decodeImage(field, base64img string) ([]byte, error) {
	if base64img == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, field+" is required")
	}
	if strings.HasPrefix(base64img, "data:") {
		parts := strings.SplitN(base64img, ",", 2)
		if len(parts) != 2 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid base64 image format in "+field)
		}
		meta := parts[0]
		base64img = parts[1]

		supported := false
		for _, t := range imageTypes {
			if strings.Contains(meta, t) {
				supported = true
				break
			}
		}
		if !supported {
			return nil, fiber.NewError(fiber.StatusUnsupportedMediaType, "Unsupported image type in "+field)
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(base64img)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Failed to decode base64 "+field+": "+err.Error())
	}
	return decoded, nil
}
