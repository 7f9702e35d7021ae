package watchdog

import (
	"encoding/json"
	"net/http"
)

type HealthResponse struct {
	Status  string      `json:"status"`
	Targets []StateInfo `json:"targets,omitempty"`
}

// HealthzHandler answers liveness checks. It only proves the process serves
// HTTP.
func HealthzHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		json.NewEncoder(rw).Encode(HealthResponse{
			Status: "ok",
		})
	}
}

func ReadyzHandler(p StateProvider) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")

		resp := HealthResponse{
			Targets: p.GetAllStates(),
		}

		if p.IsReady() {
			resp.Status = "ready"
			rw.WriteHeader(http.StatusOK)
		} else {
			resp.Status = "not_ready"
			rw.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(rw).Encode(resp)
	}
}
