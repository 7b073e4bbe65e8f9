package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/flavioribeiro/nalsegmenter/internal/entities"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		return entities.ErrHTTPGetOnly
	}

	SetSuccessJson(w)
	return json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
