package batch

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"
)

// ArchiveName is "{product}-{category}-{unix millis}.zip".
func ArchiveName(product, category string, t time.Time) string {
	return fmt.Sprintf("%s-%s-%d.zip", product, category, t.UnixMilli())
}

// WriteArchive writes files into a zip stream in order. PNG data is stored
// without recompression.
func WriteArchive(w io.Writer, files []File, modified time.Time) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Store,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("zip entry %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("zip write %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}
