package drive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	drivev3 "google.golang.org/api/drive/v3"
)

// ErrUnsupportedFile marks Docs-editor items, which only exist in their
// web formats and cannot be fetched as regular content.
var ErrUnsupportedFile = errors.New("file type cannot be downloaded directly")

// Download fetches the remote file or folder with the given ID into the
// local directory destDir. Folders are recreated recursively.
func (s *Syncer) Download(ctx context.Context, id, destDir string) error {
	f, err := s.client.ItemByID(ctx, id)
	if err != nil {
		return err
	}
	if IsFolder(f) {
		return s.downloadFolder(ctx, f, destDir)
	}
	return s.downloadFile(ctx, f, destDir)
}

// downloadFile writes f's content to destDir/name. Nothing is created
// on disk for unsupported items or failed transfers.
func (s *Syncer) downloadFile(ctx context.Context, f *drivev3.File, destDir string) error {
	if strings.HasPrefix(f.MimeType, workspaceMimePrefix) {
		logrus.WithFields(logrus.Fields{"name": f.Name, "mimeType": f.MimeType}).Warn("skipping workspace document")
		return fmt.Errorf("%s: %w", f.Name, ErrUnsupportedFile)
	}

	path := filepath.Join(destDir, f.Name)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := s.client.Download(ctx, f.Id, out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{"name": f.Name, "path": path}).Info("downloaded file")
	return nil
}

// downloadFolder recreates f under destDir and recurses into its
// children. Failures on individual items are logged and skipped.
func (s *Syncer) downloadFolder(ctx context.Context, f *drivev3.File, destDir string) error {
	dir := filepath.Join(destDir, f.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	items, err := s.client.Children(ctx, f.Id)
	if err != nil {
		return err
	}
	for _, it := range items {
		var cerr error
		if IsFolder(it) {
			cerr = s.downloadFolder(ctx, it, dir)
		} else {
			cerr = s.downloadFile(ctx, it, dir)
		}
		if cerr != nil {
			logrus.WithError(cerr).WithField("name", it.Name).Warn("download failed, continuing")
		}
	}

	logrus.WithField("path", dir).Info("downloaded folder")
	return nil
}
