package models

import "time"

// MirrorCredential holds encrypted object-store configuration for the
// cloud mirror. AccessKeyEncrypted and SecretKeyEncrypted are never
// exposed in JSON responses.
type MirrorCredential struct {
	ID                 UUID   `db:"id" json:"id"`
	Endpoint           string `db:"endpoint" json:"endpoint"`
	BucketName         string `db:"bucket_name" json:"bucketName"`
	Region             string `db:"region" json:"region,omitempty"`
	AccessKeyEncrypted string `db:"access_key_encrypted" json:"-"`
	SecretKeyEncrypted string `db:"secret_key_encrypted" json:"-"`
	IsEnabled          bool   `db:"is_enabled" json:"isEnabled"`
	CreatedAt          int64  `db:"created_at" json:"createdAt"`
	UpdatedAt          int64  `db:"updated_at" json:"updatedAt"`
}

// TableName returns the table name for MirrorCredential.
func (MirrorCredential) TableName() string {
	return "mirror_credentials"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (m *MirrorCredential) CreatedAtTime() time.Time {
	return time.Unix(m.CreatedAt, 0)
}

// UpdatedAtTime returns the UpdatedAt as time.Time.
func (m *MirrorCredential) UpdatedAtTime() time.Time {
	return time.Unix(m.UpdatedAt, 0)
}
