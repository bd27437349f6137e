package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/campusops/smart-attendance/internal/biometric"
	"github.com/campusops/smart-attendance/internal/roster"
)

// RosterHandler answers "who is this" queries over the enrolled roster.
type RosterHandler struct {
	bio    biometric.Capability
	roster *roster.Index
}

func NewRosterHandler(bio biometric.Capability, rosterIndex *roster.Index) *RosterHandler {
	return &RosterHandler{bio: bio, roster: rosterIndex}
}

type rosterMatch struct {
	StudentID string  `json:"student_id"`
	Name      string  `json:"name"`
	Distance  float64 `json:"distance"`
}

// Identify detects the largest face in an uploaded image and returns the
// nearest enrolled students. The image is posted as the raw request body.
func (h *RosterHandler) Identify(w http.ResponseWriter, r *http.Request) {
	k := 3
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = parsed
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read image")
		return
	}
	defer r.Body.Close()

	img, err := biometric.DecodeImage(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not decode image")
		return
	}

	boxes, err := h.bio.Detect(r.Context(), img)
	if err != nil {
		respondError(w, http.StatusBadGateway, "face detection failed")
		return
	}
	if len(boxes) == 0 {
		respondJSON(w, http.StatusOK, map[string]any{"matches": []rosterMatch{}})
		return
	}

	probe, err := h.bio.Encode(r.Context(), img, boxes[0])
	if err != nil {
		respondError(w, http.StatusBadGateway, "face encoding failed")
		return
	}

	matches, err := h.roster.Identify(probe, k)
	if err != nil {
		respondError(w, http.StatusNotFound, "no enrolled students to match against")
		return
	}

	out := make([]rosterMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, rosterMatch{StudentID: m.StudentID, Name: m.Name, Distance: m.Distance})
	}
	respondJSON(w, http.StatusOK, map[string]any{"matches": out})
}
