package api

import (
	"net/http"

	"github.com/dgallion1/companyapi/internal/company"
	"github.com/go-chi/chi/v5"
)

// handleGetCompany serves GET /companies/{id}. A request without an id
// reaches the service with an empty string and gets its 400 envelope.
func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	WriteEnvelope(w, s.service.Handle(r.Context(), id))
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteEnvelope copies a service envelope onto the response.
func WriteEnvelope(w http.ResponseWriter, env company.Envelope) {
	h := w.Header()
	for k, v := range env.Headers {
		h.Set(k, v)
	}
	w.WriteHeader(env.StatusCode)
	w.Write(env.Body)
}
