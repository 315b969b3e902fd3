package response

import (
	"net/http"

	appctx "github.com/identra/identra/internal/pkg/context"
)

// RequestIDFromContext extracts the request id set by the RequestID middleware.
func RequestIDFromContext(r *http.Request) string {
	return appctx.RequestID(r.Context())
}
