package dto

import "time"

// CourseCreateDTO is used for incoming course creation requests
type CourseCreateDTO struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	// A pointer so an absent price is rejected while a free course
	// (price 0) is still accepted.
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Currency    *string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Category    *string  `json:"category,omitempty"`
	MaxStudents *int     `json:"max_students,omitempty" validate:"omitempty,gt=0"`
	Thumbnail   *string  `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
}

// CourseUpdateDTO is used for incoming course update requests
type CourseUpdateDTO struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Currency    *string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Category    *string  `json:"category,omitempty"`
	Status      *string  `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	MaxStudents *int     `json:"max_students,omitempty" validate:"omitempty,gt=0"`
	Thumbnail   *string  `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
}

// CourseResponseDTO is returned in API responses for courses
type CourseResponseDTO struct {
	ID                  string    `json:"id"`
	InstructorID        string    `json:"instructor_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Price               float64   `json:"price"`
	Currency            string    `json:"currency"`
	Category            *string   `json:"category,omitempty"`
	Status              string    `json:"status"`
	MaxStudents         *int      `json:"max_students,omitempty"`
	ThumbnailURL        *string   `json:"thumbnail_url,omitempty"`
	InstructorFirstName string    `json:"first_name,omitempty"`
	InstructorLastName  string    `json:"last_name,omitempty"`
	MaterialCount       int       `json:"material_count"`
	EnrolledCount       int       `json:"enrolled_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CourseListResponseDTO wraps a list of courses.
type CourseListResponseDTO struct {
	Success bool                `json:"success"`
	Courses []CourseResponseDTO `json:"courses"`
}

// EnrollmentStatusResponseDTO is returned by the enrollment-status check.
type EnrollmentStatusResponseDTO struct {
	Success          bool    `json:"success"`
	HasAccess        bool    `json:"hasAccess"`
	IsInstructor     bool    `json:"isInstructor"`
	EnrollmentStatus *string `json:"enrollmentStatus"`
}
