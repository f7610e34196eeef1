package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ApprovalHandler interface {
	ListPending(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
}

type ApprovalHandlerImpl struct {
	approvalService timesheet.ApprovalService
}

func NewApprovalHandler(approvalService timesheet.ApprovalService) ApprovalHandler {
	return &ApprovalHandlerImpl{approvalService: approvalService}
}

// ListPending implements ApprovalHandler.
func (h *ApprovalHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	items, err := h.approvalService.ListPending(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, timesheet.NewApprovalItemResponses(items))
}

// List implements ApprovalHandler. ?status= takes all, pending or a status.
func (h *ApprovalHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.approvalService.ListForApproval(r.Context(), middleware.UserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, timesheet.NewApprovalItemResponses(items))
}

// Summary implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.approvalService.Summary(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, summary)
}

// Get implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.approvalService.GetForApproval(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, timesheet.NewApprovalDetailResponse(detail))
}

// Decide implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	var req timesheet.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Decide decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	version, err := h.approvalService.Decide(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()), timesheet.Status(req.Status), req.Comments)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Timesheet approved"
	if version.Status == timesheet.StatusRejected {
		message = "Timesheet rejected"
	}
	response.SuccessWithMessage(w, message, timesheet.NewVersionResponse(version))
}
