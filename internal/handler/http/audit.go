package http

import (
	"net/http"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/handler/http/response"
)

type AuditHandler interface {
	ListAuditLogs(w http.ResponseWriter, r *http.Request)
}

type AuditHandlerImpl struct {
	auditService audit.AuditService
}

func NewAuditHandler(auditService audit.AuditService) AuditHandler {
	return &AuditHandlerImpl{auditService: auditService}
}

// ListAuditLogs implements AuditHandler.
func (a *AuditHandlerImpl) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	filter := audit.AuditFilter{
		ActorID:    queryString(r, "actor_id"),
		EntityType: queryString(r, "entity_type"),
		EntityID:   queryString(r, "entity_id"),
		Action:     queryString(r, "action"),
	}

	page, pageOK := queryInt(r, "page")
	limit, limitOK := queryInt(r, "limit")
	if !pageOK || !limitOK {
		response.BadRequest(w, "page and limit must be integers", nil)
		return
	}
	filter.Page = page
	filter.Limit = limit

	result, err := a.auditService.ListAuditLogs(r.Context(), caller, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
