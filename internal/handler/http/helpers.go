package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/ems-backend-go/internal/handler/http/response"
)

// callerFromRequest writes a 401 when no caller was resolved for the request.
func callerFromRequest(w http.ResponseWriter, r *http.Request) (user.Caller, bool) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return user.Caller{}, false
	}
	return caller, true
}

func queryString(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}
