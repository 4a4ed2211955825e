package api

import (
	"net/http"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
)

func listDoctorAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := listFilter(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		items, err := svc.ListForDoctor(r.Context(), caller(r), f)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func listMySpecializationsHandler(svc *specialization.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListForDoctor(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func replaceMySpecializationsHandler(svc *specialization.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req specialization.ReplaceInput
		if err := decodeJSON(r, &req); err != nil {
			badBody(w, err)
			return
		}
		items, err := svc.Replace(r.Context(), caller(r), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ReplaceSpecializationsResponse{Assigned: len(items), Items: items})
	}
}

func removeMySpecializationHandler(svc *specialization.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specID, err := pathUUID(r, "specId")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if err := svc.Remove(r.Context(), caller(r), specID); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listTemplatesHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListTemplates(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func replaceTemplatesHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req availability.ReplaceTemplatesInput
		if err := decodeJSON(r, &req); err != nil {
			badBody(w, err)
			return
		}
		items, err := svc.ReplaceTemplates(r.Context(), caller(r), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ReplaceTemplatesResponse{Saved: len(items), Items: items})
	}
}

func listExceptionsHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListExceptions(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func createExceptionHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req availability.ExceptionInput
		if err := decodeJSON(r, &req); err != nil {
			badBody(w, err)
			return
		}
		ex, err := svc.CreateException(r.Context(), caller(r), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, ex)
	}
}

func deleteExceptionHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if err := svc.DeleteException(r.Context(), caller(r), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func regenerateHandler(svc *slot.Service, defaultWeeks int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		weeks, err := queryInt(r, "weeks", defaultWeeks)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		specID, err := queryUUID(r, "specializationId")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		res, err := svc.Regenerate(r.Context(), caller(r), weeks, specID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
