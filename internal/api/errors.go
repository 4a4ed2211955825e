package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

// writeServiceError maps a service error to its HTTP status. Anything it
// does not recognise is logged and reported as internal_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Details: verr.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, specialization.ErrSpecializationRequired):
		writeError(w, http.StatusBadRequest, "specialization_required",
			"doctor has zero or several specializations; provide specializationId")
	case errors.Is(err, specialization.ErrUnknownSpecialization):
		writeError(w, http.StatusBadRequest, "unknown_specialization", err.Error())
	case errors.Is(err, appointment.ErrAlreadyBooked):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, slot.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, availability.ErrExceptionNotFound):
		writeError(w, http.StatusNotFound, "slot_exception_not_found", err.Error())
	case errors.Is(err, specialization.ErrLinkNotFound):
		writeError(w, http.StatusNotFound, "specialization_link_not_found", err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
