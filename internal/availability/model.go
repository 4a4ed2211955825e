package availability

import (
	"time"

	"github.com/google/uuid"
)

const MaxTemplatesPerDoctor = 70

// WeeklyTemplate is a recurring weekly window. StartTime and EndTime are
// local civil times ("HH:MM:SS") in Timezone; Weekday is 0=Sunday..6.
type WeeklyTemplate struct {
	ID               uuid.UUID `json:"id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	Weekday          int       `json:"weekday"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	SlotDurationMins int       `json:"slot_duration_mins"`
	Timezone         string    `json:"timezone"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type TemplateInput struct {
	Weekday          *int   `json:"weekday" validate:"required,min=0,max=6"`
	StartTime        string `json:"start_time" validate:"required,clock"`
	EndTime          string `json:"end_time" validate:"required,clock"`
	SlotDurationMins int    `json:"slot_duration_mins" validate:"required,min=5,max=480"`
	Timezone         string `json:"timezone" validate:"required,timezone"`
}

type ReplaceTemplatesInput struct {
	Items []TemplateInput `json:"items" validate:"max=70,dive"`
}

// SlotException blocks a whole day (FullDay) or the local window
// [StartTime, EndTime) on Day for one doctor.
type SlotException struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Day       string    `json:"day"`
	StartTime *string   `json:"start_time"`
	EndTime   *string   `json:"end_time"`
	FullDay   bool      `json:"full_day"`
	Reason    *string   `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type ExceptionInput struct {
	Day       string  `json:"day" validate:"required,isodate"`
	FullDay   bool    `json:"full_day"`
	StartTime *string `json:"start_time" validate:"omitempty,clock"`
	EndTime   *string `json:"end_time" validate:"omitempty,clock"`
	Reason    *string `json:"reason" validate:"omitempty,max=300"`
}
