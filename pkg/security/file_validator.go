package security

import (
	"bytes"
	"path/filepath"
	"strings"
)

// MaxProfileImageBytes is the upload ceiling for profile images (5 MiB).
const MaxProfileImageBytes = 5 * 1024 * 1024

// FileValidationResult contains the result of profile-image validation
type FileValidationResult struct {
	Valid        bool
	Extension    string
	DetectedMIME string
	Error        string
}

// Magic byte signatures for the allowed image types
var magicBytes = map[string][][]byte{
	".jpg":  {{0xFF, 0xD8, 0xFF}},
	".jpeg": {{0xFF, 0xD8, 0xFF}},
	".png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	".gif":  {{0x47, 0x49, 0x46, 0x38, 0x37, 0x61}, {0x47, 0x49, 0x46, 0x38, 0x39, 0x61}}, // GIF87a & GIF89a
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// ValidateProfileImage performs layered validation on an uploaded avatar:
// size ceiling, extension whitelist, magic bytes matching the extension,
// and MIME whitelist (application/octet-stream is rejected outright).
func ValidateProfileImage(filename string, data []byte, declaredMIME string) FileValidationResult {
	result := FileValidationResult{DetectedMIME: declaredMIME}

	if int64(len(data)) > MaxProfileImageBytes {
		result.Error = "profile image exceeds the 5MB limit"
		return result
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.Error = "file has no extension"
		return result
	}
	result.Extension = ext

	if !allowedExtensions[ext] {
		result.Error = "file extension not allowed: " + ext
		return result
	}

	if !validateMagicBytes(ext, data) {
		result.Error = "file content does not match extension (potential file spoofing detected)"
		return result
	}

	if !allowedMIMETypes[strings.ToLower(declaredMIME)] {
		result.Error = "MIME type not allowed: " + declaredMIME
		return result
	}

	result.Valid = true
	return result
}

func validateMagicBytes(ext string, data []byte) bool {
	if len(data) < 4 {
		return false
	}

	signatures, ok := magicBytes[ext]
	if !ok {
		return false
	}

	for _, sig := range signatures {
		if len(data) >= len(sig) && bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}
