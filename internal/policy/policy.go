// Package policy centralizes authorization. Every role or ownership
// decision goes through Allow so no route carries its own ad-hoc check.
package policy

import "coursehub/internal/model"

// Subject is the authenticated caller.
type Subject struct {
	UserID string
	Role   string
}

// Resource is the thing being acted on. OwnerID is empty for actions that
// are not bound to an existing row (e.g. creating a course).
type Resource struct {
	Type    string
	OwnerID string
}

// Actions consulted by the handlers.
const (
	ActionCreateCourse   = "course:create"
	ActionUpdateCourse   = "course:update"
	ActionDeleteCourse   = "course:delete"
	ActionUploadMaterial = "material:upload"
	ActionDeleteMaterial = "material:delete"
	ActionCheckout       = "payment:checkout"
)

// Allow reports whether the subject may perform the action on the resource.
// Course and material mutations require the instructor role and, when the
// resource is owned, ownership of the row.
func Allow(sub Subject, action string, res Resource) bool {
	switch action {
	case ActionCreateCourse:
		return sub.Role == model.RoleInstructor
	case ActionUpdateCourse, ActionDeleteCourse, ActionUploadMaterial, ActionDeleteMaterial:
		if sub.Role != model.RoleInstructor {
			return false
		}
		return res.OwnerID == "" || res.OwnerID == sub.UserID
	case ActionCheckout:
		return sub.Role == model.RoleStudent
	default:
		return false
	}
}
