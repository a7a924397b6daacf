package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodhaul-backend/api/middleware"
	"github.com/angelmondragon/foodhaul-backend/api/responses"
	"github.com/angelmondragon/foodhaul-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/foodhaul-backend/pkg/errors"
	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

// loginRequest is shared by every role's login endpoint.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func principal(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (auth.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return auth.Principal{}, false
	}
	return p, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable"))
}
