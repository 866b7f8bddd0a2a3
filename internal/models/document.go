package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FileType identifies a document's source format.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeEPUB FileType = "epub"
	FileTypeText FileType = "text"
)

// DocumentRecord represents a stored document's metadata.
// Payload bytes are lazy-loaded and never included in listings; the
// JSON tags follow the at-rest record shape used by the remote store
// and the export bundle.
type DocumentRecord struct {
	ID           UUID      `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	FileType     FileType  `db:"file_type" json:"fileType"`
	SavedAt      time.Time `db:"saved_at" json:"savedAt"`
	TotalPages   int       `db:"total_pages" json:"totalPages,omitempty"`
	LastReadPage int       `db:"last_read_page" json:"lastReadPage,omitempty"`
	IsFavorite   bool      `db:"is_favorite" json:"isFavorite"`
	PageTexts    []string  `db:"page_texts" json:"pageTexts,omitempty"`
	SizeBytes    int64     `db:"size_bytes" json:"sizeBytes,omitempty"`
	CollectionID *UUID     `db:"collection_id" json:"collectionId,omitempty"`

	// Payload holds the decoded binary content when it was requested.
	// It never travels inside the metadata JSON; transport encodes it
	// separately as base64.
	Payload []byte `db:"-" json:"-"`
}

// TableName returns the table name for DocumentRecord.
func (DocumentRecord) TableName() string {
	return "document_records"
}

// Validate checks the record's user-supplied fields.
func (d DocumentRecord) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Title, validation.Required, validation.Length(1, 512)),
		validation.Field(&d.FileType, validation.Required,
			validation.In(FileTypePDF, FileTypeEPUB, FileTypeText)),
		validation.Field(&d.LastReadPage, validation.Min(0)),
		validation.Field(&d.TotalPages, validation.Min(0)),
	)
}

// Clone returns a deep copy of the record, including page texts and
// payload bytes.
func (d *DocumentRecord) Clone() *DocumentRecord {
	out := *d
	if d.PageTexts != nil {
		out.PageTexts = make([]string, len(d.PageTexts))
		copy(out.PageTexts, d.PageTexts)
	}
	if d.CollectionID != nil {
		id := *d.CollectionID
		out.CollectionID = &id
	}
	if d.Payload != nil {
		out.Payload = make([]byte, len(d.Payload))
		copy(out.Payload, d.Payload)
	}
	return &out
}
