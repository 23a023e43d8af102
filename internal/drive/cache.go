package drive

import (
	gocache "github.com/patrickmn/go-cache"
	drivev3 "google.golang.org/api/drive/v3"
)

// Entry is the cached identity of a remote item.
type Entry struct {
	ID       string
	MimeType string
	Parents  []string
}

// IsFolder reports whether the cached item is a folder.
func (e Entry) IsFolder() bool {
	return e.MimeType == FolderMimeType
}

// NameCache remembers which names already exist under which folder so
// repeated transfers can skip remote lookups. Entries live for the
// process lifetime; the remote is still queried on every miss, so a
// stale cache only costs an extra round trip.
type NameCache struct {
	c *gocache.Cache
}

// NewNameCache returns an empty cache.
func NewNameCache() *NameCache {
	return &NameCache{c: gocache.New(gocache.NoExpiration, 0)}
}

// Names are scoped to their parent folder. NUL cannot appear in a
// remote name, which makes the joined key unambiguous.
func cacheKey(parentID, name string) string {
	return parentID + "\x00" + name
}

// Get returns the cached entry for name under parentID.
func (nc *NameCache) Get(parentID, name string) (Entry, bool) {
	v, ok := nc.c.Get(cacheKey(parentID, name))
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Put records a remote item under the given parent.
func (nc *NameCache) Put(parentID string, f *drivev3.File) {
	if f == nil {
		return
	}
	nc.c.Set(cacheKey(parentID, f.Name), Entry{
		ID:       f.Id,
		MimeType: f.MimeType,
		Parents:  f.Parents,
	}, gocache.NoExpiration)
}

// Forget drops a single entry.
func (nc *NameCache) Forget(parentID, name string) {
	nc.c.Delete(cacheKey(parentID, name))
}

// Flush drops every entry.
func (nc *NameCache) Flush() {
	nc.c.Flush()
}

// Len reports the number of cached entries.
func (nc *NameCache) Len() int {
	return nc.c.ItemCount()
}
