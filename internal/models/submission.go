package models

import (
	"fmt"
	"time"
)

// FormType identifies which lead-capture form a submission came from.
type FormType string

const (
	FormContact FormType = "contact"
	FormRequest FormType = "request"
)

// DataTypeCategories are the categories offered by the request-data form.
// Free text for "other" is carried in DataDetails.
var DataTypeCategories = []string{"text", "image", "video", "audio", "other"}

func (f FormType) String() string {
	return string(f)
}

// Valid reports whether f is a known form type.
func (f FormType) Valid() bool {
	return f == FormContact || f == FormRequest
}

// MetricName is the analytics event recorded for an accepted submission.
func (f FormType) MetricName() string {
	switch f {
	case FormContact:
		return "contact_form_submission"
	case FormRequest:
		return "data_request_submission"
	default:
		return string(f) + "_submission"
	}
}

// ObjectKey returns the storage key for a submission accepted at the given time.
func (f FormType) ObjectKey(at time.Time) string {
	return fmt.Sprintf("%s/%d.json", f, at.UnixMilli())
}

// Record is a submission that passed validation.
type Record interface {
	FormType() FormType
}

// ContactSubmission is a validated contact form payload.
type ContactSubmission struct {
	Name         string `json:"name" validate:"required,max=100"`
	Organization string `json:"organization,omitempty" validate:"max=100"`
	Email        string `json:"email" validate:"required,max=100,address"`
	Message      string `json:"message" validate:"required,max=1000"`
}

func (ContactSubmission) FormType() FormType { return FormContact }

// DataRequestSubmission is a validated request-data form payload.
type DataRequestSubmission struct {
	Name              string   `json:"name" validate:"required,max=100"`
	Organization      string   `json:"organization,omitempty" validate:"max=100"`
	Email             string   `json:"email" validate:"required,max=100,address"`
	BackgroundPurpose string   `json:"backgroundPurpose" validate:"required,max=1000"`
	DataType          []string `json:"dataType" validate:"nonempty,dive,datatype"`
	DataDetails       string   `json:"dataDetails,omitempty" validate:"max=1000"`
	DataVolume        string   `json:"dataVolume" validate:"required,max=500"`
	Deadline          string   `json:"deadline" validate:"required,max=500"`
	Budget            string   `json:"budget" validate:"required,max=500"`
	OtherRequirements string   `json:"otherRequirements,omitempty" validate:"max=1000"`
}

func (DataRequestSubmission) FormType() FormType { return FormRequest }

// NavigationEvent is a client-side navigation beacon.
type NavigationEvent struct {
	From      string `json:"from" validate:"required,max=500"`
	To        string `json:"to" validate:"required,max=500"`
	Element   string `json:"element" validate:"required,max=500"`
	Timestamp int64  `json:"timestamp" validate:"required"`
}
