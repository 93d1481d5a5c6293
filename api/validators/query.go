package validators

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/pagination"
)

// PageParams reads page/size query parameters, applying defaults and caps.
func PageParams(r *http.Request) pagination.Params {
	params := pagination.Params{}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			params.Page = v
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			params.Size = v
		}
	}
	return params.Normalize()
}

// PathUUID parses a URL path segment as a UUID.
func PathUUID(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name)
	}
	return id, nil
}
