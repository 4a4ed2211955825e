package api

import (
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

type ErrorResponse struct {
	Error   string                  `json:"error"`
	Details string                  `json:"details,omitempty"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

type ReplaceSpecializationsResponse struct {
	Assigned int                   `json:"assigned"`
	Items    []specialization.Link `json:"items"`
}

type ReplaceTemplatesResponse struct {
	Saved int                           `json:"saved"`
	Items []availability.WeeklyTemplate `json:"items"`
}
