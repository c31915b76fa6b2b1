package utils

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func IsAllowedFileType(filename string, allowedTypes []string) bool {
	ext := strings.TrimPrefix(GetFileExtension(filename), ".")
	for _, allowedType := range allowedTypes {
		if ext == allowedType {
			return true
		}
	}
	return false
}

func IsImageFile(filename string) bool {
	return IsAllowedFileType(filename, AllowedImageTypes)
}

// GenerateObjectKey builds a collision-free storage key under folder that keeps
// the original extension.
func GenerateObjectKey(folder, originalFilename string) string {
	return folder + "/" + uuid.NewString() + GetFileExtension(originalFilename)
}

func GetContentType(filename string) string {
	contentTypes := map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".pdf":  "application/pdf",
	}

	if contentType, exists := contentTypes[GetFileExtension(filename)]; exists {
		return contentType
	}
	return "application/octet-stream"
}
