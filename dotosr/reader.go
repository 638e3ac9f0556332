package dotosr

import "osukit/internal/binio"

// newReader returns a binio.Reader whose failures are *ReplayError
// values with the replay error kinds.
func newReader(data []byte) *binio.Reader {
	return binio.NewReader(data, func(kind error, field string, offset int, err error) error {
		switch kind {
		case binio.ErrTruncated:
			kind = ErrTruncatedReplay
		case binio.ErrMalformed:
			kind = ErrMalformedReplay
		}
		return &ReplayError{Kind: kind, Field: field, Offset: offset, Err: err}
	})
}
