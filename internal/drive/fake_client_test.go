package drive

import (
	"context"
	"fmt"
	"io"
	"sync"

	drivev3 "google.golang.org/api/drive/v3"
)

// fakeClient is an in-memory Client with enough behavior to exercise
// the sync paths: parent links, name collisions, and per-item failure
// injection.
type fakeClient struct {
	mu      sync.Mutex
	nextID  int
	order   []string
	items   map[string]*drivev3.File
	content map[string][]byte
	calls   map[string]int

	failUploads   map[string]bool
	failDownloads map[string]bool
}

var _ Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	f := &fakeClient{
		items:         map[string]*drivev3.File{},
		content:       map[string][]byte{},
		calls:         map[string]int{},
		failUploads:   map[string]bool{},
		failDownloads: map[string]bool{},
	}
	f.items[RootID] = &drivev3.File{Id: RootID, Name: "My Drive", MimeType: FolderMimeType}
	return f
}

func (f *fakeClient) newID() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeClient) add(parentID, name, mimeType string, content []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID()
	f.items[id] = &drivev3.File{Id: id, Name: name, MimeType: mimeType, Parents: []string{parentID}}
	f.order = append(f.order, id)
	if content != nil {
		f.content[id] = content
	}
	return id
}

func (f *fakeClient) addFolder(parentID, name string) string {
	return f.add(parentID, name, FolderMimeType, nil)
}

func (f *fakeClient) addFile(parentID, name, content string) string {
	return f.add(parentID, name, "text/plain", []byte(content))
}

func (f *fakeClient) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeClient) ItemByID(_ context.Context, id string) (*drivev3.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ItemByID"]++
	it, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s not found", id)
	}
	return it, nil
}

func (f *fakeClient) Children(_ context.Context, folderID string) ([]*drivev3.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Children"]++
	var out []*drivev3.File
	for _, id := range f.order {
		it := f.items[id]
		for _, p := range it.Parents {
			if p == folderID {
				out = append(out, it)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeClient) AllItems(_ context.Context) ([]*drivev3.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AllItems"]++
	var out []*drivev3.File
	for _, id := range f.order {
		out = append(out, f.items[id])
	}
	return out, nil
}

func (f *fakeClient) FindInFolder(_ context.Context, parentID, name string) (*drivev3.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["FindInFolder"]++
	for _, id := range f.order {
		it := f.items[id]
		if it.Name != name {
			continue
		}
		for _, p := range it.Parents {
			if p == parentID {
				return it, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeClient) CreateFolder(_ context.Context, name, parentID string) (*drivev3.File, error) {
	f.mu.Lock()
	f.calls["CreateFolder"]++
	f.mu.Unlock()
	id := f.addFolder(parentID, name)
	return f.items[id], nil
}

func (f *fakeClient) UploadFile(_ context.Context, name, parentID string, content io.Reader) (*drivev3.File, error) {
	f.mu.Lock()
	f.calls["UploadFile"]++
	fail := f.failUploads[name]
	f.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("upload of %s refused", name)
	}
	b, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	id := f.add(parentID, name, "text/plain", b)
	return f.items[id], nil
}

func (f *fakeClient) Download(_ context.Context, fileID string, dst io.Writer) error {
	f.mu.Lock()
	f.calls["Download"]++
	fail := f.failDownloads[fileID]
	b, ok := f.content[fileID]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("download of %s refused", fileID)
	}
	if !ok {
		return fmt.Errorf("item %s has no content", fileID)
	}
	_, err := dst.Write(b)
	return err
}

// findByName scans for the first item with the given name under parentID.
func (f *fakeClient) findByName(parentID, name string) *drivev3.File {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		it := f.items[id]
		if it.Name != name {
			continue
		}
		for _, p := range it.Parents {
			if p == parentID {
				return it
			}
		}
	}
	return nil
}
