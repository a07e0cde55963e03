// Package archive turns a scan source into a directory on disk, extracting
// zip archives into a temporary workspace that is removed on Close.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"simfinder/logging"

	"github.com/klauspost/compress/zip"
)

// ErrArchive is returned when a source archive cannot be opened or extracted
var ErrArchive = errors.New("archive error")

var zipMagic = [][]byte{
	[]byte("PK\x03\x04"),
	[]byte("PK\x05\x06"), // empty archive
}

// Workspace is a directory to scan. The zero value owns nothing.
type Workspace struct {
	Dir  string
	temp bool
}

// Close removes the workspace if it was extracted into a temporary directory
func (w *Workspace) Close() error {
	if w == nil || !w.temp || w.Dir == "" {
		return nil
	}
	dir := w.Dir
	w.Dir, w.temp = "", false
	logging.DebugLog("Removing workspace %s", dir)
	return os.RemoveAll(dir)
}

// Temporary reports whether Close deletes the directory
func (w *Workspace) Temporary() bool {
	return w != nil && w.temp
}

// Open prepares source for scanning. Directories are used in place; zip
// archives are extracted. Any other kind of file fails with ErrArchive.
func Open(ctx context.Context, source, password string) (*Workspace, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return &Workspace{Dir: source}, nil
	}

	isZip, err := IsZip(source)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", ErrArchive, source, err)
	}
	if !isZip {
		return nil, fmt.Errorf("%w: unsupported archive format: %s", ErrArchive, source)
	}
	return Extract(ctx, source, password)
}

// IsZip sniffs the file signature
func IsZip(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	for _, magic := range zipMagic {
		if bytes.Equal(header, magic) {
			return true, nil
		}
	}
	return false, nil
}

// Extract unpacks a zip archive into a fresh temporary directory.
// On failure nothing is left behind.
func Extract(ctx context.Context, archivePath, password string) (*Workspace, error) {
	if password != "" {
		logging.LogWarning("Password given for %s but encrypted archives are not supported; ignoring it", archivePath)
	}

	dir, err := os.MkdirTemp("", "simfinder-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create workspace: %w", err)
	}
	ws := &Workspace{Dir: dir, temp: true}

	if err := extractInto(ctx, archivePath, dir); err != nil {
		if cerr := ws.Close(); cerr != nil {
			logging.LogError("Failed to remove workspace %s: %v", dir, cerr)
		}
		return nil, err
	}

	logging.DebugLog("Extracted %s into %s", archivePath, dir)
	return ws, nil
}

func extractInto(ctx context.Context, archivePath, dir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: cannot open %s: %v", ErrArchive, archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := safeJoin(dir, f.Name)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrArchive, archivePath, err)
		}

		mode := f.FileInfo().Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("cannot create %s: %w", target, err)
			}
			continue
		case mode&os.ModeSymlink != 0:
			logging.LogWarning("Skipping symlink %s in %s", f.Name, archivePath)
			continue
		case f.Flags&0x1 != 0:
			return fmt.Errorf("%w: %s: entry %s is encrypted", ErrArchive, archivePath, f.Name)
		}

		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrArchive, archivePath, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("cannot open entry %s: %v", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("cannot extract entry %s: %v", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	if !f.Modified.IsZero() {
		// keeps fingerprint cache entries valid across runs
		if err := os.Chtimes(target, f.Modified, f.Modified); err != nil {
			logging.LogWarning("Cannot set modification time on %s: %v", target, err)
		}
	}
	return nil
}

// safeJoin rejects entries that would land outside dir
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("illegal entry path %q", name)
	}
	return target, nil
}
