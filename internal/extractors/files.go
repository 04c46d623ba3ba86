package extractors

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ReadFiles loads local files as uploads. The MIME type is left empty so
// the registry picks an extractor by extension. Files larger than maxBytes
// are rejected with domain.ErrPayloadTooLarge; a non-positive maxBytes
// disables the check.
func ReadFiles(maxBytes int64, paths ...string) ([]domain.RawDocument, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files given", domain.ErrEmptyInput)
	}
	docs := make([]domain.RawDocument, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, p)
		}
		if maxBytes > 0 && info.Size() > maxBytes {
			return nil, fmt.Errorf("%w: %s is %d bytes", domain.ErrPayloadTooLarge, p, info.Size())
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, domain.RawDocument{Name: filepath.Base(p), Content: content})
	}
	return docs, nil
}
