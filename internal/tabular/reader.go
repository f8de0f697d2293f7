package tabular

import (
	"bufio"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newBOMSkippingReader drops a UTF-8 byte order mark from the start of the
// stream. Excel on Windows prefixes exported CSVs with one, and encoding/csv
// would otherwise treat it as part of the first header cell.
func newBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(utf8BOM))
	if err != nil {
		// stream shorter than a BOM, let the CSV reader surface the real error
		return br
	}

	if head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
		_, _ = br.Discard(len(utf8BOM))
	}

	return br
}
