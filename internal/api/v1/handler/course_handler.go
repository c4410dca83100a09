package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/middleware"
	"coursehub/internal/model"
	"coursehub/internal/policy"
	"coursehub/internal/repository"
	"coursehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CourseHandler handles course, material and enrollment-status endpoints
type CourseHandler struct {
	courseService   service.CourseService
	materialService service.MaterialService
	validate        *validator.Validate
	logger          zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(
	courseService service.CourseService,
	materialService service.MaterialService,
	validate *validator.Validate,
	logger zerolog.Logger,
) *CourseHandler {
	return &CourseHandler{
		courseService:   courseService,
		materialService: materialService,
		validate:        validate,
		logger:          logger.With().Str("handler", "CourseHandler").Logger(),
	}
}

// RegisterRoutes mounts course routes
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/courses", authMw(http.HandlerFunc(h.handleCollection)))
	mux.Handle("/courses/", authMw(http.HandlerFunc(h.handleCourse)))
}

func (h *CourseHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createCourse(w, r)
	case http.MethodGet:
		h.listCourses(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleCourse dispatches /courses/{id} and its subresources.
func (h *CourseHandler) handleCourse(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/courses/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	if len(parts) == 1 && parts[0] == "my" {
		h.listMine(w, r)
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.getCourse(w, r, parts[0])
		case http.MethodPut:
			h.updateCourse(w, r, parts[0])
		case http.MethodDelete:
			h.deleteCourse(w, r, parts[0])
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "enrollment-status":
		h.enrollmentStatus(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "materials":
		switch r.Method {
		case http.MethodPost:
			h.uploadMaterials(w, r, parts[0])
		case http.MethodGet:
			h.listMaterials(w, r, parts[0])
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 3 && parts[1] == "materials":
		if r.Method != http.MethodDelete {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.deleteMaterial(w, r, parts[0], parts[2])
	default:
		http.NotFound(w, r)
	}
}

func courseDTO(c *model.Course) dto.CourseResponseDTO {
	return dto.CourseResponseDTO{
		ID:                  c.ID,
		InstructorID:        c.InstructorID,
		Title:               c.Title,
		Description:         c.Description,
		Price:               c.Price,
		Currency:            c.Currency,
		Category:            c.Category,
		Status:              c.Status,
		MaxStudents:         c.MaxStudents,
		ThumbnailURL:        c.ThumbnailURL,
		InstructorFirstName: c.InstructorFirstName,
		InstructorLastName:  c.InstructorLastName,
		MaterialCount:       c.MaterialCount,
		EnrolledCount:       c.EnrolledCount,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !policy.Allow(policy.Subject(user), policy.ActionCreateCourse, policy.Resource{Type: "course"}) {
		writeError(w, http.StatusForbidden, "Forbidden: Only instructors can create courses")
		return
	}
	var req dto.CourseCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	course := &model.Course{
		InstructorID: user.UserID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        *req.Price,
		Category:     req.Category,
		MaxStudents:  req.MaxStudents,
		ThumbnailURL: req.Thumbnail,
	}
	if req.Currency != nil {
		course.Currency = *req.Currency
	}
	created, err := h.courseService.CreateCourse(r.Context(), course)
	if err != nil {
		if errors.Is(err, service.ErrNegativePrice) {
			writeError(w, http.StatusBadRequest, "Price must be a positive number")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to create course")
		writeError(w, http.StatusInternalServerError, "Failed to create course")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "course": courseDTO(created)})
}

func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.CourseFilter{
		Status:       q.Get("status"),
		Category:     q.Get("category"),
		InstructorID: q.Get("instructor_id"),
	}
	courses, err := h.courseService.ListCourses(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list courses")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve courses")
		return
	}
	resp := dto.CourseListResponseDTO{Success: true, Courses: make([]dto.CourseResponseDTO, 0, len(courses))}
	for i := range courses {
		resp.Courses = append(resp.Courses, courseDTO(&courses[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CourseHandler) listMine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	courses, err := h.courseService.ListMine(r.Context(), user.UserID, user.Role)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list caller's courses")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve courses")
		return
	}
	resp := dto.CourseListResponseDTO{Success: true, Courses: make([]dto.CourseResponseDTO, 0, len(courses))}
	for i := range courses {
		resp.Courses = append(resp.Courses, courseDTO(&courses[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	course, err := h.courseService.GetCourseByID(r.Context(), courseID)
	if err != nil {
		h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to retrieve course")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve course")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "Course not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "course": courseDTO(course)})
}

func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !policy.Allow(policy.Subject(user), policy.ActionUpdateCourse, policy.Resource{Type: "course"}) {
		writeError(w, http.StatusForbidden, "Forbidden: Only instructors can update courses")
		return
	}
	var req dto.CourseUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	update := model.CourseUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		Category:     req.Category,
		Status:       req.Status,
		MaxStudents:  req.MaxStudents,
		ThumbnailURL: req.Thumbnail,
	}
	updated, err := h.courseService.UpdateCourse(r.Context(), courseID, user.UserID, update)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFields):
			writeError(w, http.StatusBadRequest, "No fields to update")
		case errors.Is(err, service.ErrNegativePrice):
			writeError(w, http.StatusBadRequest, "Price must be a positive number")
		case errors.Is(err, service.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, "Course not found")
		case errors.Is(err, service.ErrNotCourseOwner):
			writeError(w, http.StatusForbidden, "Forbidden: course is owned by another instructor")
		default:
			h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to update course")
			writeError(w, http.StatusInternalServerError, "Failed to update course")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "course": courseDTO(updated)})
}

func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !policy.Allow(policy.Subject(user), policy.ActionDeleteCourse, policy.Resource{Type: "course"}) {
		writeError(w, http.StatusForbidden, "Forbidden: Only instructors can delete courses")
		return
	}
	deleted, err := h.courseService.DeleteCourse(r.Context(), courseID, user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, "Course not found")
		case errors.Is(err, service.ErrNotCourseOwner):
			writeError(w, http.StatusForbidden, "Forbidden: course is owned by another instructor")
		default:
			h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to delete course")
			writeError(w, http.StatusInternalServerError, "Failed to delete course")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Course and all associated materials deleted successfully",
		"deletedCourse": courseDTO(deleted),
	})
}

func (h *CourseHandler) enrollmentStatus(w http.ResponseWriter, r *http.Request, courseID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	status, err := h.courseService.CheckEnrollment(r.Context(), courseID, user.UserID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			writeError(w, http.StatusNotFound, "Course not found")
			return
		}
		h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to check enrollment status")
		writeError(w, http.StatusInternalServerError, "Failed to check enrollment status")
		return
	}
	writeJSON(w, http.StatusOK, dto.EnrollmentStatusResponseDTO{
		Success:          true,
		HasAccess:        status.HasAccess,
		IsInstructor:     status.IsInstructor,
		EnrollmentStatus: status.EnrollmentStatus,
	})
}
