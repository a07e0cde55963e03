package database

import (
	"path/filepath"
	"testing"

	"simfinder/types"
)

func TestStoreAndLookupImage(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	info := types.ImageInfo{
		Path:           "holiday/beach.png",
		SourcePrefix:   "photos.zip",
		Format:         "png",
		Width:          640,
		Height:         480,
		ModifiedAt:     "2024-05-01T10:00:00Z",
		Size:           1234,
		HashBits:       64,
		PerceptualHash: "00000000ffffffff",
	}
	if err := StoreImageInfo(db, info); err != nil {
		t.Fatalf("StoreImageInfo failed: %v", err)
	}

	got, err := LookupImage(db, info.Path, info.SourcePrefix)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected cached entry")
	}
	if got.PerceptualHash != info.PerceptualHash || got.Size != info.Size || got.ModifiedAt != info.ModifiedAt {
		t.Errorf("unexpected entry: %+v", got)
	}

	// Same path under another source is a separate entry
	other, err := LookupImage(db, info.Path, "other")
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Errorf("expected miss for other source, got %+v", other)
	}
}

func TestStoreImageInfoReplaces(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	info := types.ImageInfo{Path: "a.png", SourcePrefix: "dir", HashBits: 64, PerceptualHash: "0000000000000001"}
	if err := StoreImageInfo(db, info); err != nil {
		t.Fatal(err)
	}
	info.PerceptualHash = "0000000000000002"
	if err := StoreImageInfo(db, info); err != nil {
		t.Fatal(err)
	}

	stats, err := GetCacheStats(db, "dir")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalImages != 1 || stats.UniqueHashes != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	got, _ := LookupImage(db, "a.png", "dir")
	if got == nil || got.PerceptualHash != "0000000000000002" {
		t.Errorf("entry not replaced: %+v", got)
	}
}
