package interfaces

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobboard/domain"
)

// ErrCSRF rejects a page form whose token does not match its cookie.
var ErrCSRF = errors.Mark(errors.New("CSRF verification failed. Request aborted."), domain.ErrForbidden)

// errorStatus maps a domain error kind to its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalid), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON body. Unclassified errors are logged and
// hidden behind a generic message.
func respondError(c *gin.Context, log *zap.SugaredLogger, err error) {
	status := errorStatus(err)

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(status, validationBody(verr))
	case status == http.StatusNotFound:
		c.AbortWithStatusJSON(status, gin.H{"detail": "Not found."})
	case status == http.StatusUnauthorized:
		c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
	case status == http.StatusInternalServerError:
		log.Errorw("Request failed",
			"request_id", c.GetString(requestIDKey),
			"path", c.Request.URL.Path,
			"error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
	default:
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
	}
}

// validationBody renders field errors as lists keyed by field, with a
// request-wide message under "error".
func validationBody(verr *domain.ValidationError) gin.H {
	body := gin.H{}
	for field, msg := range verr.Fields {
		body[field] = []string{msg}
	}
	if verr.Message != "" {
		body["error"] = verr.Message
	}
	return body
}
