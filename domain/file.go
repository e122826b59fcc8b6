package domain

import "time"

// FileInfo describes an upload kept in the shared files directory.
type FileInfo struct {
	Name       string
	Size       int64
	Uploader   string
	MimeType   string
	Sha256     string
	UploadedAt time.Time
}
