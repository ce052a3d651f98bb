package l402client

import (
	"bytes"
	"io"
)

// newBodyReader wraps body (which may be nil) as a fresh io.ReadCloser, so
// the same bytes can be replayed across the initial attempt and the
// post-payment retry.
func newBodyReader(body []byte) io.ReadCloser {
	if body == nil {
		return nil
	}
	return io.NopCloser(bytes.NewReader(body))
}
