// Package models defines the server-side values passed between the
// retrieval stages.
package models

// FileDescriptor is the normalized metadata of a stored object, whatever
// shape the backend returned it in. It is built per request and never cached.
type FileDescriptor struct {
	// Locator identifies the binary for the backend's fetch path
	// (a bot API file id, or an object key).
	Locator string
	// Name is the display file name, unsanitized.
	Name string
	// MimeType is the Content-Type to serve.
	MimeType string
	// Size is the size the backend reported, 0 if unknown.
	Size int64
	// Photo is set when the backend stores the object as a compressed photo
	// rather than a document.
	Photo bool
}

// Download is a fully assembled retrieval result.
type Download struct {
	Body        []byte
	FileName    string
	MimeType    string
	Size        int64
	Disposition string
}
