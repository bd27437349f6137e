package handlers

import (
	"errors"
	"net/http"

	"github.com/campusops/smart-attendance/internal/store"
	"github.com/campusops/smart-attendance/internal/web/middleware"
)

// AuthHandler authenticates students and instructors against the roster
// and issues bearer tokens for the rest of the API.
type AuthHandler struct {
	students    store.StudentStore
	instructors store.InstructorStore
	auth        *middleware.AuthManager
}

func NewAuthHandler(students store.StudentStore, instructors store.InstructorStore, auth *middleware.AuthManager) *AuthHandler {
	return &AuthHandler{
		students:    students,
		instructors: instructors,
		auth:        auth,
	}
}

type loginRequest struct {
	ID       string `json:"id"`
	Passcode string `json:"passcode"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Enrolled bool   `json:"enrolled,omitempty"`
}

// Login checks the credentials against instructors first, then students,
// and reports whether a student still needs to enroll a face.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" || req.Passcode == "" {
		respondError(w, http.StatusBadRequest, "id and passcode are required")
		return
	}

	instructor, err := h.instructors.GetByCredentials(r.Context(), req.ID, req.Passcode)
	if err == nil {
		session := h.auth.CreateSession(instructor.ID, instructor.Name, middleware.RoleInstructor)
		respondJSON(w, http.StatusOK, loginResponse{
			Token: session.Token,
			Role:  string(session.Role),
			Name:  instructor.Name,
		})
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "could not verify credentials")
		return
	}

	student, err := h.students.GetByCredentials(r.Context(), req.ID, req.Passcode)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not verify credentials")
		return
	}

	session := h.auth.CreateSession(student.ID, student.Name, middleware.RoleStudent)
	respondJSON(w, http.StatusOK, loginResponse{
		Token:    session.Token,
		Role:     string(session.Role),
		Name:     student.Name,
		Enrolled: student.Enrolled,
	})
}

// Logout invalidates the current session token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session != nil {
		h.auth.Delete(session.Token)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
