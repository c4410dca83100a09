package dto

import "time"

// MaterialResponseDTO is a material row with a signed download link.
// Storage key and bucket are internal and never serialized.
type MaterialResponseDTO struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	FileSize    int64     `json:"file_size"`
	UploadOrder int       `json:"upload_order"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MaterialListResponseDTO wraps a material listing.
type MaterialListResponseDTO struct {
	Success   bool                  `json:"success"`
	Materials []MaterialResponseDTO `json:"materials"`
}

// MaterialUploadResponseDTO reports the outcome of a multipart upload.
type MaterialUploadResponseDTO struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message"`
	Materials []MaterialResponseDTO `json:"materials"`
}
