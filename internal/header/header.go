// Package header reads and writes the fixed-layout prefix of a vault file.
//
// A vault buffer is laid out as
//
//	[u32 little-endian header length][header JSON][opaque payload]
//
// The header JSON must be an object whose "magic" field equals Magic and whose
// "version" field equals Version. Everything after the header is payload and is
// never interpreted by this package.
package header

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	// Magic identifies a Crownix vault header.
	Magic = "CROWNIX_VAULT"

	// Version is the only header version this build accepts.
	Version = 1

	// LengthPrefixSize is the size of the little-endian header length prefix.
	LengthPrefixSize = 4
)

var (
	// ErrTruncated is returned when the buffer is shorter than its declared header.
	ErrTruncated = errors.New("vault header truncated")
	// ErrMalformedHeader is returned when the header bytes are not a JSON object.
	ErrMalformedHeader = errors.New("vault header is not a JSON object")
	// ErrBadMagic is returned when the magic string is missing or wrong.
	ErrBadMagic = errors.New("vault header magic mismatch")
	// ErrUnsupportedVersion is returned when the version is missing or not Version.
	ErrUnsupportedVersion = errors.New("unsupported vault header version")
	// ErrHeaderTooLarge is returned when a header does not fit the length prefix.
	ErrHeaderTooLarge = errors.New("vault header too large")
)

// Header is the decoded header object. Fields other than magic and version are
// kept verbatim in Extra so that re-encoding does not drop them.
type Header struct {
	Magic   string
	Version int
	Extra   map[string]json.RawMessage
}

// New returns a header carrying the current magic and version.
func New() *Header {
	return &Header{Magic: Magic, Version: Version}
}

// Validate reports whether buf starts with a well-formed, supported header.
// It never panics and never returns an error: any defect yields false.
func Validate(buf []byte) bool {
	_, err := Parse(buf)
	return err == nil
}

// Parse decodes and checks the header at the start of buf.
func Parse(buf []byte) (*Header, error) {
	raw, _, err := Split(buf)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	// "null" decodes into a nil map without error.
	if fields == nil {
		return nil, ErrMalformedHeader
	}

	h := &Header{}

	magic, ok := fields["magic"]
	if !ok || json.Unmarshal(magic, &h.Magic) != nil || h.Magic != Magic {
		return nil, ErrBadMagic
	}

	version, ok := fields["version"]
	if !ok {
		return nil, ErrUnsupportedVersion
	}
	var v int64
	if err := json.Unmarshal(version, &v); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}
	if v != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, v, Version)
	}
	h.Version = int(v)

	delete(fields, "magic")
	delete(fields, "version")
	if len(fields) > 0 {
		h.Extra = fields
	}

	return h, nil
}

// Split returns the raw header JSON and the payload without decoding either.
func Split(buf []byte) (headerJSON, payload []byte, err error) {
	if len(buf) < LengthPrefixSize {
		return nil, nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncated, len(buf), LengthPrefixSize)
	}

	n := uint64(binary.LittleEndian.Uint32(buf[:LengthPrefixSize]))
	end := LengthPrefixSize + n
	if end > uint64(len(buf)) {
		return nil, nil, fmt.Errorf("%w: header declares %d bytes, buffer holds %d", ErrTruncated, n, len(buf)-LengthPrefixSize)
	}

	return buf[LengthPrefixSize:end], buf[end:], nil
}

// Payload returns the bytes following a valid header.
func Payload(buf []byte) ([]byte, error) {
	if _, err := Parse(buf); err != nil {
		return nil, err
	}
	_, payload, err := Split(buf)
	return payload, err
}

// Encode serializes h followed by payload in the on-disk layout.
func Encode(h *Header, payload []byte) ([]byte, error) {
	if h == nil {
		h = New()
	}

	fields := make(map[string]any, len(h.Extra)+2)
	for k, v := range h.Extra {
		fields[k] = v
	}
	fields["magic"] = h.Magic
	fields["version"] = h.Version

	headerJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}

	return Frame(headerJSON, payload)
}

// Frame prefixes headerJSON with its length and appends payload. The header is
// not checked; use Validate on the result when that matters.
func Frame(headerJSON, payload []byte) ([]byte, error) {
	if uint64(len(headerJSON)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerJSON))
	}

	var buf bytes.Buffer
	buf.Grow(LengthPrefixSize + len(headerJSON) + len(payload))

	var prefix [LengthPrefixSize]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(headerJSON)))
	buf.Write(prefix[:])
	buf.Write(headerJSON)
	buf.Write(payload)

	return buf.Bytes(), nil
}
