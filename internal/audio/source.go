package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Origin distinguishes how an audio source entered the system.
type Origin string

const (
	OriginUploaded Origin = "uploaded"
	OriginRecorded Origin = "recorded"
)

// ErrEmptyPayload is returned when a source carries no audio bytes.
var ErrEmptyPayload = errors.New("audio payload is empty")

// ErrUnsupportedFormat is returned when the file name does not match an
// accepted audio extension or MIME type.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

var acceptedExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".flac": {},
	".ogg":  {},
}

var acceptedMIMETypes = map[string]struct{}{
	"audio/mp3":  {},
	"audio/mpeg": {},
	"audio/wav":  {},
	"audio/m4a":  {},
	"audio/flac": {},
	"audio/ogg":  {},
}

// Source wraps one audio input, either an uploaded file or a finished
// recording. A Source is immutable once built.
type Source struct {
	Origin      Origin
	DisplayName string
	MIMEType    string
	Bytes       []byte
}

// NewUploaded validates and wraps a user-supplied audio file.
func NewUploaded(name, mimeType string, data []byte) (*Source, error) {
	return newSource(OriginUploaded, name, mimeType, data)
}

// NewRecorded wraps a finished microphone capture.
func NewRecorded(name string, data []byte) (*Source, error) {
	return newSource(OriginRecorded, name, "audio/wav", data)
}

func newSource(origin Origin, name, mimeType string, data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if !Accepted(name, mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return &Source{
		Origin:      origin,
		DisplayName: name,
		MIMEType:    mimeType,
		Bytes:       data,
	}, nil
}

// Accepted reports whether a file name or MIME type names a supported
// audio encoding. Either one matching is sufficient.
func Accepted(name, mimeType string) bool {
	if _, ok := acceptedMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))]; ok {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := acceptedExtensions[ext]
	return ok
}
