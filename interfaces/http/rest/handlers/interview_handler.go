package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"prepcoach/application/commands"
	"prepcoach/application/queries"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/pkg/common"
)

// InterviewHandler serves the interview preparation endpoints
type InterviewHandler struct {
	Base
}

// NewInterviewHandler creates an interview handler
func NewInterviewHandler(base Base) *InterviewHandler {
	return &InterviewHandler{Base: base}
}

// CreateInterview handles POST /interviews
func (h *InterviewHandler) CreateInterview(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateInterviewCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Actor = actorFrom(r)
	h.send(w, r, http.StatusCreated, cmd)
}

// ListInterviews handles GET /interviews?status=&page=&page_size=
func (h *InterviewHandler) ListInterviews(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListInterviewsQuery{
		Actor:      actorFrom(r),
		Status:     valueobjects.InterviewStatus(r.URL.Query().Get("status")),
		Pagination: common.ExtractPaginationParams(r),
	})
}

// GetInterview handles GET /interviews/{interviewID}
func (h *InterviewHandler) GetInterview(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetInterviewQuery{Actor: actorFrom(r), InterviewID: chi.URLParam(r, "interviewID")})
}

// UpdateProgress handles PUT /interviews/{interviewID}/progress
func (h *InterviewHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateInterviewProgressCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Actor = actorFrom(r)
	cmd.InterviewID = chi.URLParam(r, "interviewID")
	h.send(w, r, http.StatusOK, cmd)
}

// UpdateStatus handles PUT /interviews/{interviewID}/status
func (h *InterviewHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateInterviewStatusCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Actor = actorFrom(r)
	cmd.InterviewID = chi.URLParam(r, "interviewID")
	h.send(w, r, http.StatusOK, cmd)
}
