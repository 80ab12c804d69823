package convert

import (
	"fmt"
	"io"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/bethropolis/tomboy/internal/logger"
)

// PDFToMarkup extracts the text of each page. Pages become paragraphs.
func PDFToMarkup(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdflib.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var blocks []block
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.WarnTagf("convert", "Skipping PDF page %d: %v", i, err)
			continue
		}
		blocks = append(blocks, block{text: text})
	}
	return blocksToMarkup(blocks), nil
}
