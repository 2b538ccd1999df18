package model

import "time"

// Version is one immutable content revision of a document.
// StorageKey points into object storage and is exclusively owned by this
// version; keys are never reused, so resolving a historical version can
// never return bytes written by a later one.
type Version struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	StorageKey string    `json:"-"`
	Checksum   string    `json:"checksum"`
	Size       int64     `json:"size"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}
