package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

func searchSlotsHandler(svc *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specID, err := queryUUID(r, "specializationId")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		from, err := queryTime(r, "from")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		to, err := queryTime(r, "to")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		limit, err := queryInt(r, "limit", slot.DefaultLimit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		verr := &validation.Error{}
		if specID == nil {
			verr.Fields = append(verr.Fields, validation.FieldError{Field: "specializationId", Rule: "required", Message: "is required"})
		}
		if from == nil {
			verr.Fields = append(verr.Fields, validation.FieldError{Field: "from", Rule: "required", Message: "is required"})
		}
		if to == nil {
			verr.Fields = append(verr.Fields, validation.FieldError{Field: "to", Rule: "required", Message: "is required"})
		}
		if len(verr.Fields) > 0 {
			writeServiceError(w, r, verr)
			return
		}

		page, err := svc.Search(r.Context(), slot.SearchQuery{
			SpecializationID: *specID,
			From:             *from,
			To:               *to,
			Limit:            limit,
			Offset:           offset,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func bookAppointmentHandler(svc *appointment.Service, slots *slot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointment.BookInput
		if err := decodeJSON(r, &req); err != nil {
			badBody(w, err)
			return
		}

		appt, err := svc.BookSlot(r.Context(), caller(r), req)
		if err != nil {
			if errors.Is(err, appointment.ErrAlreadyBooked) {
				// the booking statement cannot tell a missing slot from a taken one
				if _, getErr := slots.Get(r.Context(), uuid.MustParse(req.SlotID)); errors.Is(getErr, slot.ErrSlotNotFound) {
					err = getErr
				}
			}
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, appt)
	}
}

func listPatientAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := listFilter(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		items, err := svc.ListForPatient(r.Context(), caller(r), f)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if err := svc.CancelAppointment(r.Context(), caller(r), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
