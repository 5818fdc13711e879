// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractContextArchive unpacks a tar stream into a fresh scoped temporary
// directory and returns its path together with a cleanup func. The caller
// must arrange for cleanup to run on every exit path, success or failure.
func extractContextArchive(archive io.Reader) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "repoforge-context-")
	if err != nil {
		return "", nil, fmt.Errorf("create context extraction directory: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	if err := untar(archive, dir); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("extract build context archive: %w", err)
	}
	return dir, cleanup, nil
}

// untar unpacks a tar stream into dest, rejecting entries that would escape it.
func untar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := securePath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := writeRegularFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if _, err := securePath(dest, filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		default:
			// Hard links, devices, and other special entries have no place in
			// a build context; skip them rather than failing the whole build.
			continue
		}
	}
}

// securePath joins name onto dest and verifies the result stays inside dest.
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return target, nil
}

func writeRegularFile(target string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
