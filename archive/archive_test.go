package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
)

type zipEntry struct {
	name string
	body string
}

func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: time.Date(2023, 3, 14, 15, 9, 26, 0, time.UTC),
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenDirectoryIsUsedInPlace(t *testing.T) {
	dir := t.TempDir()

	ws, err := Open(context.Background(), dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if ws.Dir != dir || ws.Temporary() {
		t.Errorf("unexpected workspace: %+v", ws)
	}
	if err := ws.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("source directory must survive Close: %v", err)
	}
}

func TestExtractZipAndCleanup(t *testing.T) {
	src := filepath.Join(t.TempDir(), "photos.zip")
	writeZip(t, src, []zipEntry{
		{name: "a.txt", body: "alpha"},
		{name: "nested/deeper/b.txt", body: "beta"},
	})

	ws, err := Open(context.Background(), src, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !ws.Temporary() {
		t.Fatal("expected a temporary workspace")
	}

	data, err := os.ReadFile(filepath.Join(ws.Dir, "nested", "deeper", "b.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "beta" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := os.Stat(filepath.Join(ws.Dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if info.ModTime().Year() != 2023 {
		t.Errorf("modification time not preserved: %v", info.ModTime())
	}

	dir := ws.Dir
	if err := ws.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workspace %s still exists after Close", dir)
	}
	// closing twice is harmless
	if err := ws.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
}

func TestCorruptZipFailsWithArchiveError(t *testing.T) {
	src := filepath.Join(t.TempDir(), "broken.zip")
	if err := os.WriteFile(src, []byte("PK\x03\x04 this is not really a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(context.Background(), src, "")
	if !errors.Is(err, ErrArchive) {
		t.Fatalf("expected ErrArchive, got %v", err)
	}
}

func TestNonZipFileIsUnsupported(t *testing.T) {
	src := filepath.Join(t.TempDir(), "photos.rar")
	if err := os.WriteFile(src, []byte("Rar!\x1a\x07\x00"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(context.Background(), src, "secret")
	if !errors.Is(err, ErrArchive) {
		t.Fatalf("expected ErrArchive, got %v", err)
	}
}

func TestZipSlipIsRejected(t *testing.T) {
	src := filepath.Join(t.TempDir(), "evil.zip")
	writeZip(t, src, []zipEntry{{name: "../escaped.txt", body: "boom"}})

	_, err := Open(context.Background(), src, "")
	if !errors.Is(err, ErrArchive) {
		t.Fatalf("expected ErrArchive, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(os.TempDir()), "escaped.txt")); err == nil {
		t.Error("entry escaped the workspace")
	}
}

func TestSafeJoin(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "work")
	if _, err := safeJoin(dir, "ok/file.png"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, name := range []string{"../x", "a/../../x", ".."} {
		if _, err := safeJoin(dir, name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
