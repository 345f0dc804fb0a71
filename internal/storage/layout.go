package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cesargomez89/toonshelf/internal/constants"
)

// ImageKey derives the cache key for an image URL.
func ImageKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// ImagePath shards cached images by the first two key characters so no
// single directory grows too large.
func ImagePath(imagesDir, key string) string {
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(imagesDir, shard, key+constants.ImageFileExt)
}

// TempPath returns a unique scratch file next to dst.
func TempPath(dst string) string {
	return filepath.Join(filepath.Dir(dst), "."+uuid.NewString()+constants.TempSuffix)
}

// IsTempFile reports whether name is a leftover scratch file.
func IsTempFile(name string) bool {
	return filepath.Ext(name) == constants.TempSuffix
}
