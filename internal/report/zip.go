// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BundleZip writes a zip archive containing the given files, which are
// paths relative to root. Entry names keep the relative layout with
// forward slashes.
func BundleZip(w io.Writer, root string, paths []string) error {
	zw := zip.NewWriter(w)
	for _, rel := range paths {
		if err := addFile(zw, root, rel); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, root, rel string) error {
	src, err := os.Open(filepath.Join(root, rel))
	if err != nil {
		return fmt.Errorf("opening %s: %w", rel, err)
	}
	defer src.Close()

	entry, err := zw.Create(filepath.ToSlash(rel))
	if err != nil {
		return fmt.Errorf("creating archive entry %s: %w", rel, err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("writing archive entry %s: %w", rel, err)
	}
	return nil
}
