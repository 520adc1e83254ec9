package projects

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// validatePDF checks that the payload parses as a PDF before any remote
// upload is paid for, and returns its page count.
func validatePDF(filename string, content []byte) (int, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return 0, fmt.Errorf("%w: only PDF uploads are supported", ErrInvalidInput)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("%w: unreadable PDF: %v", ErrInvalidInput, err)
	}
	return reader.NumPage(), nil
}
