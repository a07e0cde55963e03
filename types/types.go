package types

// SimilarityRecord pairs a corpus file with its similarity to the sample
type SimilarityRecord struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// ImageInfo holds the cached fingerprint and the file metadata it was computed from
type ImageInfo struct {
	ID             int64  `json:"id"`
	Path           string `json:"path"`
	SourcePrefix   string `json:"source_prefix"`
	Format         string `json:"format"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	ModifiedAt     string `json:"modified_at"`
	Size           int64  `json:"size"`
	HashBits       int    `json:"hash_bits"`
	PerceptualHash string `json:"perceptual_hash"`
}

// ScanStats summarizes a single corpus scan
type ScanStats struct {
	TotalFiles int
	Scored     int
	Skipped    int
	CacheHits  int
	Formats    map[string]int
}
