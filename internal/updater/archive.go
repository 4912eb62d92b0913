package updater

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractZip decompresses a zip archive (Windows/macOS client archives)
// into dst. Every entry's resolved path is verified to stay within dst;
// an entry that would escape it aborts the whole extraction. The source
// this handler is modeled on does not enforce this — §9 Open Questions
// calls it out as a gap implementers must close.
func ExtractZip(src string, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("updater: open zip archive: %w", err)
	}
	defer r.Close()

	for _, entry := range r.File {
		target, err := safeJoin(dst, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("updater: create dir %q: %w", target, err)
			}
			continue
		}

		if err := extractZipEntry(entry, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("updater: create parent dir for %q: %w", target, err)
	}
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("updater: open zip entry %q: %w", entry.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, entry.Mode())
	if err != nil {
		return fmt.Errorf("updater: create %q: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("updater: write %q: %w", target, err)
	}
	return nil
}

// ExtractTarGz decompresses a gzip-wrapped tar archive (Linux client
// archives and the resource repository archive) into dst, with the same
// path-traversal protection as ExtractZip.
func ExtractTarGz(src string, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("updater: open tar.gz archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("updater: open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("updater: read tar entry: %w", err)
		}

		target, err := safeJoin(dst, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("updater: create dir %q: %w", target, err)
			}
		case tar.TypeReg:
			if err := extractTarEntry(tr, target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		default:
			// Symlinks and other special entries are skipped; the
			// archives this handler processes never rely on them.
		}
	}
}

func extractTarEntry(tr *tar.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("updater: create parent dir for %q: %w", target, err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("updater: create %q: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, tr); err != nil {
		return fmt.Errorf("updater: write %q: %w", target, err)
	}
	return nil
}

// safeJoin resolves name under root and rejects any result that escapes
// root after cleaning, blocking "../" path-traversal entries and
// absolute entry names.
func safeJoin(root, name string) (string, error) {
	cleanRoot := filepath.Clean(root)
	target := filepath.Join(cleanRoot, name)
	rel, err := filepath.Rel(cleanRoot, target)
	if err != nil || filepath.IsAbs(name) || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("updater: archive entry %q escapes destination", name)
	}
	return target, nil
}
