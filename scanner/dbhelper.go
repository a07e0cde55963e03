package scanner

import (
	"database/sql"
	"os"
	"time"

	"simfinder/database"
	"simfinder/imageprocessor"
	"simfinder/logging"
	"simfinder/types"
)

// checkCache returns the stored fingerprint when the file is unchanged since it was cached
func checkCache(db *sql.DB, key, sourcePrefix string, fileInfo os.FileInfo, bits int) (imageprocessor.Fingerprint, imageprocessor.FormatType, bool) {
	if db == nil {
		return imageprocessor.Fingerprint{}, "", false
	}

	cached, err := database.LookupImage(db, key, sourcePrefix)
	if err != nil {
		logging.LogWarning("Fingerprint cache lookup failed for %s: %v", key, err)
		return imageprocessor.Fingerprint{}, "", false
	}
	if cached == nil || cached.HashBits != bits || cached.Size != fileInfo.Size() {
		return imageprocessor.Fingerprint{}, "", false
	}

	storedTime, err := time.Parse(time.RFC3339Nano, cached.ModifiedAt)
	if err != nil || !fileInfo.ModTime().Equal(storedTime) {
		return imageprocessor.Fingerprint{}, "", false
	}

	fp, err := imageprocessor.ParseFingerprint(cached.PerceptualHash, cached.HashBits)
	if err != nil {
		logging.LogWarning("Ignoring corrupt cache entry for %s: %v", key, err)
		return imageprocessor.Fingerprint{}, "", false
	}

	logging.DebugLog("Using cached fingerprint for %s", key)
	return fp, imageprocessor.ParseFormat(cached.Format), true
}

// storeCache records a freshly computed fingerprint; failures only cost a recomputation next run
func storeCache(db *sql.DB, key, sourcePrefix string, fileInfo os.FileInfo, meta imageprocessor.ImageMeta, fp imageprocessor.Fingerprint) {
	if db == nil {
		return
	}

	info := types.ImageInfo{
		Path:           key,
		SourcePrefix:   sourcePrefix,
		Format:         string(meta.Format),
		Width:          meta.Width,
		Height:         meta.Height,
		ModifiedAt:     fileInfo.ModTime().UTC().Format(time.RFC3339Nano),
		Size:           fileInfo.Size(),
		HashBits:       fp.Len(),
		PerceptualHash: fp.String(),
	}
	if err := database.StoreImageInfo(db, info); err != nil {
		logging.LogWarning("Cannot cache fingerprint for %s: %v", key, err)
	}
}
