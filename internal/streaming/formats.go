package streaming

import (
	"path"
	"strings"
)

// GetContentType maps a playlist or segment name to its MIME type.
func GetContentType(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	ext := strings.ToLower(path.Ext(name))

	switch ext {
	case ".m3u8", ".m3u":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	case ".m4s":
		return "video/iso.segment"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".aac":
		return "audio/aac"
	case ".vtt":
		return "text/vtt"
	default:
		return "application/octet-stream"
	}
}
