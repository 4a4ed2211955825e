package appointment

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier delivers a reminder for one upcoming appointment.
type Notifier interface {
	Remind(ctx context.Context, a AppointmentDetail) error
}

// LogNotifier writes reminders to the log instead of sending mail.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Remind(_ context.Context, a AppointmentDetail) error {
	n.log.Info().
		Str("appointment_id", a.ID.String()).
		Str("patient_id", a.PatientID.String()).
		Str("doctor_id", a.DoctorID.String()).
		Time("start_time", a.StartTime).
		Msg("appointment reminder")
	return nil
}
