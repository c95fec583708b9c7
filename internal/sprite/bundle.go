package sprite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hmallory/toytill/internal/model"
)

// BundleStore serves sprites shipped with the application: a directory of
// PNG files addressed through manifest.json. Treated as infallible and
// local; a missing bundle simply never hits.
type BundleStore struct {
	manifest map[string]string
	dir      string
}

// NewBundleStore loads the manifest from dir. A missing or unreadable
// manifest yields an empty store rather than an error.
func NewBundleStore(dir string) *BundleStore {
	store := &BundleStore{
		dir:      dir,
		manifest: make(map[string]string),
	}

	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return store
	}
	// Ignore a malformed manifest for the same reason.
	_ = json.Unmarshal(data, &store.manifest)

	return store
}

// Lookup returns the bundled image for a normalized key, trying the exact
// manifest key, then the category default, then the direct file-name
// convention.
func (s *BundleStore) Lookup(key string, category model.Category) ([]byte, bool) {
	if filename, ok := s.manifest[key]; ok {
		if image := s.readFile(filename); image != nil {
			return image, true
		}
	}

	if filename, ok := s.manifest["category:"+string(category)]; ok {
		if image := s.readFile(filename); image != nil {
			return image, true
		}
	}

	if image := s.readFile(fmt.Sprintf("sprite_%s.png", key)); image != nil {
		return image, true
	}

	return nil, false
}

func (s *BundleStore) readFile(filename string) []byte {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil
	}
	return data
}
