package handler

import (
	"errors"
	"fmt"
	"net/http"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/middleware"
	"coursehub/internal/model"
	"coursehub/internal/policy"
	"coursehub/internal/service"
)

// multipartMemoryLimit is the in-memory buffer for multipart parsing;
// larger files spool to disk.
const multipartMemoryLimit = 32 << 20

func materialDTO(m *model.CourseMaterial, downloadURL string) dto.MaterialResponseDTO {
	return dto.MaterialResponseDTO{
		ID:          m.ID,
		CourseID:    m.CourseID,
		FileName:    m.FileName,
		FileType:    m.FileType,
		FileSize:    m.FileSize,
		UploadOrder: m.UploadOrder,
		DownloadURL: downloadURL,
		CreatedAt:   m.CreatedAt,
	}
}

// ownedCourse loads the course and checks the action against the policy.
// It writes the error response itself and returns false when the request
// must not proceed.
func (h *CourseHandler) ownedCourse(w http.ResponseWriter, r *http.Request, courseID, action string) bool {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	course, err := h.courseService.GetCourseRow(r.Context(), courseID)
	if err != nil {
		h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to retrieve course")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve course")
		return false
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "Course not found")
		return false
	}
	if !policy.Allow(policy.Subject(user), action, policy.Resource{Type: "course", OwnerID: course.InstructorID}) {
		writeError(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}

func (h *CourseHandler) uploadMaterials(w http.ResponseWriter, r *http.Request, courseID string) {
	if !h.ownedCourse(w, r, courseID, policy.ActionUploadMaterial) {
		return
	}
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	closers := make([]func() error, 0, len(headers))
	defer func() {
		for _, c := range closers {
			c()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		closers = append(closers, f.Close)
		files = append(files, service.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	uploaded, err := h.materialService.Upload(r.Context(), courseID, files)
	if err != nil {
		var uploadErr *service.UploadError
		switch {
		case errors.Is(err, service.ErrNoFiles), errors.Is(err, service.ErrTooManyFiles):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &uploadErr):
			// Earlier files stay committed; the client reconciles.
			writeError(w, http.StatusBadRequest, uploadErr.Error())
		default:
			h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to upload materials")
			writeError(w, http.StatusInternalServerError, "Failed to upload materials")
		}
		return
	}

	resp := dto.MaterialUploadResponseDTO{
		Success:   true,
		Message:   fmt.Sprintf("%d file(s) uploaded successfully", len(uploaded)),
		Materials: make([]dto.MaterialResponseDTO, 0, len(uploaded)),
	}
	for i := range uploaded {
		resp.Materials = append(resp.Materials, materialDTO(&uploaded[i], ""))
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *CourseHandler) listMaterials(w http.ResponseWriter, r *http.Request, courseID string) {
	if _, ok := middleware.UserFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	materials, urls, err := h.materialService.List(r.Context(), courseID)
	if err != nil {
		h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to list materials")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve materials")
		return
	}
	resp := dto.MaterialListResponseDTO{Success: true, Materials: make([]dto.MaterialResponseDTO, 0, len(materials))}
	for i := range materials {
		resp.Materials = append(resp.Materials, materialDTO(&materials[i], urls[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CourseHandler) deleteMaterial(w http.ResponseWriter, r *http.Request, courseID, materialID string) {
	if !h.ownedCourse(w, r, courseID, policy.ActionDeleteMaterial) {
		return
	}
	if err := h.materialService.Delete(r.Context(), courseID, materialID); err != nil {
		if errors.Is(err, service.ErrMaterialNotFound) {
			writeError(w, http.StatusNotFound, "Material not found")
			return
		}
		h.logger.Error().Err(err).Str("material_id", materialID).Msg("Failed to delete material")
		writeError(w, http.StatusInternalServerError, "Failed to delete material")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Material deleted successfully"})
}
