package handler

import (
	"net/http"

	"school-finance-backend/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError writes err using its apperrors kind. Internal errors are logged and masked.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal server error", "code": apperrors.CodeUnexpected})
		return
	}

	body := gin.H{"error": err.Error()}
	if appErr, ok := apperrors.As(err); ok {
		body["code"] = appErr.Code
		if field, ok := appErr.Context["field"]; ok {
			body["field"] = field
		}
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": apperrors.CodeInvalidInput})
}

// uuidParam parses a required path parameter.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses an optional query parameter; an empty value yields nil.
func optionalUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

// requiredUUID parses a required query parameter.
func requiredUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, ok := optionalUUID(c, name)
	if !ok {
		return uuid.Nil, false
	}
	if id == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " is required", "code": apperrors.CodeMissingField})
		return uuid.Nil, false
	}
	return *id, true
}
