package csvsource

import (
	"bufio"
	"io"
)

// skipBOM drops a leading UTF-8 byte order mark and reports whether one
// was there.
func skipBOM(r io.Reader) (io.Reader, bool) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
		return br, true
	}
	return br, false
}
