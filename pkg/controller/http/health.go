package http

import (
	"net/http"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/domain/types"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, &model.HealthStatus{
		Status:  "healthy",
		Service: "ghchangelog",
		Version: types.Version,
	})
}
