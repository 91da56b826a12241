package hello

import (
	"encoding/json"
	"net/http"
)

func Handle(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": "Hello, auth API!",
		"status":  "running",
	})
}
