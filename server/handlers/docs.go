package handlers

import (
	"net/http"

	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// V1SwaggerDoc serves the registered OpenAPI document.
func V1SwaggerDoc(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			logger.Warn("No swagger document registered", zap.Error(err))
			SendJSONResponseWithStatus(w, http.StatusNotFound, ErrorResponse{Code: "DOC_NOT_FOUND", Message: err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(doc)); err != nil {
			logger.Error("Failed to write swagger document", zap.Error(err))
		}
	}
}
