package export

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Stats summarizes the records under an output directory.
type Stats struct {
	Records int   `json:"records"`
	Corpora int   `json:"corpora"`
	Bytes   int64 `json:"bytes"`
}

// CollectStats walks dir and counts exported records. A missing directory
// yields zero stats.
func CollectStats(dir string) (Stats, error) {
	var st Stats
	if dir == "" {
		return st, nil
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, err
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir {
				st.Corpora++
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".json") || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		st.Records++
		st.Bytes += info.Size()
		return nil
	})
	return st, err
}
