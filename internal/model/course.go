package model

import "time"

// Course status values.
const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

// Course is a sellable course owned by an instructor.
type Course struct {
	ID           string    `db:"id" json:"id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Price        float64   `db:"price" json:"price"`
	Currency     string    `db:"currency" json:"currency"`
	Category     *string   `db:"category" json:"category,omitempty"`
	Status       string    `db:"status" json:"status"`
	MaxStudents  *int      `db:"max_students" json:"max_students,omitempty"`
	ThumbnailURL *string   `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Aggregates populated on reads, not stored columns.
	InstructorFirstName string `db:"first_name" json:"instructor_first_name,omitempty"`
	InstructorLastName  string `db:"last_name" json:"instructor_last_name,omitempty"`
	MaterialCount       int    `db:"material_count" json:"material_count"`
	EnrolledCount       int    `db:"enrolled_count" json:"enrolled_count"`
}

// CourseUpdate carries the optional fields of a partial course update.
// Nil fields are left untouched.
type CourseUpdate struct {
	Title        *string
	Description  *string
	Price        *float64
	Currency     *string
	Category     *string
	Status       *string
	MaxStudents  *int
	ThumbnailURL *string
}

// Empty reports whether no field is set.
func (u CourseUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil &&
		u.Currency == nil && u.Category == nil && u.Status == nil &&
		u.MaxStudents == nil && u.ThumbnailURL == nil
}
