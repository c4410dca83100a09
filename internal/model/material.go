package model

import "time"

// CourseMaterial is the metadata row for an uploaded file. The bytes
// themselves live in object storage under StorageKey.
type CourseMaterial struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	FileName      string    `db:"file_name" json:"file_name"`
	FileType      string    `db:"file_type" json:"file_type"`
	FileSize      int64     `db:"file_size" json:"file_size"`
	StorageKey    string    `db:"storage_key" json:"-"`
	StorageBucket string    `db:"storage_bucket" json:"-"`
	UploadOrder   int       `db:"upload_order" json:"upload_order"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
