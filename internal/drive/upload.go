package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	drivev3 "google.golang.org/api/drive/v3"
)

// Syncer moves file trees between the local filesystem and the remote,
// skipping anything that already exists under the destination by name.
type Syncer struct {
	client Client
	cache  *NameCache
}

// NewSyncer wires a client to a name cache. A nil cache gets a fresh one.
func NewSyncer(client Client, cache *NameCache) *Syncer {
	if cache == nil {
		cache = NewNameCache()
	}
	return &Syncer{client: client, cache: cache}
}

// CreateFolder makes a remote folder under parentID and caches it.
// An empty parentID targets the root.
func (s *Syncer) CreateFolder(ctx context.Context, name, parentID string) (*drivev3.File, error) {
	if parentID == "" {
		parentID = RootID
	}
	f, err := s.client.CreateFolder(ctx, name, parentID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(parentID, f)
	return f, nil
}

// ListItems fetches a folder's children, or every visible item when
// folderID is empty.
func (s *Syncer) ListItems(ctx context.Context, folderID string) ([]*drivev3.File, error) {
	if folderID == "" {
		return s.client.AllItems(ctx)
	}
	return s.client.Children(ctx, folderID)
}

// ContentsOnly reports whether path addresses a directory's contents
// rather than the directory itself, marked by a trailing separator.
func ContentsOnly(path string) bool {
	return strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(os.PathSeparator))
}

// Upload sends a local file or directory tree into the remote folder
// parentID and returns the remote ID of the uploaded item. Uploading
// "dir/" sends the contents of dir directly into parentID, with no
// wrapping folder, and returns parentID.
func (s *Syncer) Upload(ctx context.Context, path, parentID string) (string, error) {
	if parentID == "" {
		parentID = RootID
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	switch {
	case info.IsDir():
		return s.uploadFolder(ctx, path, parentID)
	case info.Mode().IsRegular():
		return s.uploadFile(ctx, path, parentID)
	default:
		return "", fmt.Errorf("%s is neither a regular file nor a directory", path)
	}
}

// Exists reports whether name is already present under parentID,
// consulting the cache before the remote. Remote hits are cached.
func (s *Syncer) Exists(ctx context.Context, parentID, name string) (Entry, bool, error) {
	if e, ok := s.cache.Get(parentID, name); ok {
		return e, true, nil
	}

	f, err := s.client.FindInFolder(ctx, parentID, name)
	if err != nil {
		return Entry{}, false, err
	}
	if f == nil {
		return Entry{}, false, nil
	}
	s.cache.Put(parentID, f)
	return Entry{ID: f.Id, MimeType: f.MimeType, Parents: f.Parents}, true, nil
}

func (s *Syncer) uploadFile(ctx context.Context, path, parentID string) (string, error) {
	name := filepath.Base(path)

	entry, ok, err := s.Exists(ctx, parentID, name)
	if err != nil {
		return "", err
	}
	if ok {
		logrus.WithFields(logrus.Fields{"name": name, "id": entry.ID}).Info("already exists, skipping upload")
		return entry.ID, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	created, err := s.client.UploadFile(ctx, name, parentID, f)
	if err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{"name": name, "id": created.Id}).Info("uploaded file")

	if err := s.refreshFolder(ctx, parentID); err != nil {
		logrus.WithError(err).Debug("cache refresh failed")
	}
	return created.Id, nil
}

// uploadFolder recurses into path. Failures on individual items are
// logged and skipped so one bad file does not abort the whole tree.
func (s *Syncer) uploadFolder(ctx context.Context, path, parentID string) (string, error) {
	targetID := parentID
	if !ContentsOnly(path) {
		name := filepath.Base(filepath.Clean(path))
		id, err := s.findOrCreateFolder(ctx, name, parentID)
		if err != nil {
			return "", err
		}
		targetID = id
	}

	files, dirs, err := ListLocal(path)
	if err != nil {
		return "", err
	}

	for _, name := range files {
		if _, err := s.uploadFile(ctx, filepath.Join(path, name), targetID); err != nil {
			logrus.WithError(err).WithField("name", name).Warn("file upload failed, continuing")
		}
	}
	for _, name := range dirs {
		if _, err := s.uploadFolder(ctx, filepath.Join(path, name), targetID); err != nil {
			logrus.WithError(err).WithField("name", name).Warn("folder upload failed, continuing")
		}
	}
	return targetID, nil
}

// findOrCreateFolder reuses a remote folder named name under parentID
// when one exists, creating it otherwise. An existing non-folder item
// with the same name is left alone; remote names are not unique.
func (s *Syncer) findOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	items, err := s.client.Children(ctx, parentID)
	if err != nil {
		return "", err
	}

	existingID := ""
	for _, it := range items {
		s.cache.Put(parentID, it)
		if existingID == "" && it.Name == name && IsFolder(it) {
			existingID = it.Id
		}
	}
	if existingID != "" {
		logrus.WithFields(logrus.Fields{"name": name, "id": existingID}).Debug("reusing remote folder")
		return existingID, nil
	}

	created, err := s.client.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	s.cache.Put(parentID, created)
	return created.Id, nil
}

// refreshFolder reloads the cache entries for everything under parentID.
func (s *Syncer) refreshFolder(ctx context.Context, parentID string) error {
	items, err := s.client.Children(ctx, parentID)
	if err != nil {
		return err
	}
	for _, it := range items {
		s.cache.Put(parentID, it)
	}
	return nil
}
