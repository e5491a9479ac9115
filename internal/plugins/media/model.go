// Package media stores recipe images on the local filesystem. Clients send
// images inline as base64 data URLs; the store validates them, downscales
// anything larger than the configured dimension, and writes them under a
// UUID file name that is then served statically.
package media

// recipeDir is the subdirectory of the media root holding recipe images.
const recipeDir = "recipes"

// AllowedMimeTypes defines which MIME types are accepted for upload.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// MimeToExtension maps MIME types to file extensions.
var MimeToExtension = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}
