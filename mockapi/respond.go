package mockapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("mock api encode response")
	}
}

// writeError writes err as a {detail} body.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// Detail writes a {detail} failure body, the shape the backend uses for
// validation errors.
func Detail(status int, detail string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, map[string]string{"detail": detail})
	}
}

// Message writes a {message} failure body.
func Message(status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, status, message)
	}
}

// PlanLimit mimics the backend rejecting a create on a full plan.
func PlanLimit(message string) http.HandlerFunc {
	return Message(http.StatusTooManyRequests, "PLAN_LIMIT: "+message)
}

func decodeBody(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}
