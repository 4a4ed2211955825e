package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

func listCatalogueHandler(svc *specialization.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Catalogue(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, validation.Newf(name, "uuid", "must be a UUID")
	}
	return id, nil
}

// queryUUID returns nil when the parameter is absent.
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, validation.Newf(name, "uuid", "must be a UUID")
	}
	return &id, nil
}

// queryTime parses an RFC 3339 timestamp; nil when absent.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, validation.Newf(name, "datetime", "must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Newf(name, "int", "must be an integer")
	}
	return n, nil
}

func listFilter(r *http.Request) (appointment.ListFilter, error) {
	from, err := queryTime(r, "from")
	if err != nil {
		return appointment.ListFilter{}, err
	}
	to, err := queryTime(r, "to")
	if err != nil {
		return appointment.ListFilter{}, err
	}
	return appointment.ListFilter{From: from, To: to}, nil
}

func badBody(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
}
