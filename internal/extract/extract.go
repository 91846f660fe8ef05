// Package extract pulls the fps-tracker binary out of release archives.
// Unix releases ship tar.gz archives, the Windows release ships a zip.
package extract

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrBinaryNotFound indicates the archive extracted cleanly but contained
// no entry with the expected binary name.
var ErrBinaryNotFound = errors.New("binary not found in archive")

// Binary extracts the named binary from an archive to destPath, choosing
// the codec by the archive's extension. The extracted file is created
// with executable permissions.
func Binary(archivePath, destPath, binaryName string) error {
	if strings.HasSuffix(archivePath, ".zip") {
		return binaryFromZip(archivePath, destPath, binaryName)
	}
	return binaryFromTarGz(archivePath, destPath, binaryName)
}

// binaryFromTarGz scans a tar.gz archive for the binary and streams it
// out without extracting anything else.
func binaryFromTarGz(archivePath, destPath, binaryName string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return fmt.Errorf("%w: %s", ErrBinaryNotFound, binaryName)
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		if err := rejectTraversal(header.Name); err != nil {
			return err
		}

		if header.Typeflag == tar.TypeReg && filepath.Base(header.Name) == binaryName {
			return writeBinary(destPath, tarReader)
		}
	}
}

// binaryFromZip scans a zip archive for the binary.
func binaryFromZip(archivePath, destPath, binaryName string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if err := rejectTraversal(entry.Name); err != nil {
			return err
		}
		if entry.FileInfo().IsDir() || filepath.Base(entry.Name) != binaryName {
			continue
		}

		src, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open archive entry: %w", err)
		}
		err = writeBinary(destPath, src)
		src.Close()
		return err
	}
	return fmt.Errorf("%w: %s", ErrBinaryNotFound, binaryName)
}

// rejectTraversal refuses archive entries whose names escape the
// extraction root.
func rejectTraversal(name string) error {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) || clean == ".." {
		return fmt.Errorf("illegal file path in archive: %s", name)
	}
	return nil
}

func writeBinary(destPath string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(outFile, src); err != nil {
		outFile.Close()
		return fmt.Errorf("write file: %w", err)
	}
	return outFile.Close()
}
