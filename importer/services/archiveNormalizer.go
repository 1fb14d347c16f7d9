package services

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// NormalizeSessionDir flattens a session directory into a case-insensitive
// file index. Every zip archive found (uploads sometimes contain the whole
// legacy data folder zipped, with further zips inside) is extracted into a
// sibling directory named after the archive and then deleted, repeatedly,
// until no archives remain. The result maps upper-cased base filenames
// (e.g. "PRODUTO.DBF") to resolved paths.
func NormalizeSessionDir(sessionDir string) (map[string]string, error) {
	for {
		archives, err := findArchives(sessionDir)
		if err != nil {
			return nil, err
		}
		if len(archives) == 0 {
			break
		}
		for _, archive := range archives {
			target := strings.TrimSuffix(archive, filepath.Ext(archive))
			if err := extractZip(archive, target); err != nil {
				return nil, fmt.Errorf("extract %s: %w", filepath.Base(archive), err)
			}
			if err := os.Remove(archive); err != nil {
				return nil, fmt.Errorf("remove extracted archive %s: %w", filepath.Base(archive), err)
			}
		}
	}

	index := make(map[string]string)
	err := filepath.Walk(sessionDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		index[strings.ToUpper(filepath.Base(path))] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index session dir: %w", err)
	}
	return index, nil
}

// MissingRequiredFiles returns the required legacy filenames absent from the
// normalized index. A non-empty result must fail the job before any
// destructive staging or overwrite step runs.
func MissingRequiredFiles(index map[string]string) []string {
	var missing []string
	for _, file := range RequiredFiles() {
		if _, ok := index[file]; !ok {
			missing = append(missing, file)
		}
	}
	return missing
}

func findArchives(dir string) ([]string, error) {
	var archives []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".zip") {
			archives = append(archives, path)
		}
		return nil
	})
	return archives, err
}

func extractZip(archivePath, targetDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return err
	}

	for _, file := range reader.File {
		destPath := filepath.Join(targetDir, file.Name)

		// Reject entries escaping the target directory
		if !strings.HasPrefix(destPath, filepath.Clean(targetDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes extraction dir", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}
		if err := extractZipEntry(file, destPath); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(file *zip.File, destPath string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
