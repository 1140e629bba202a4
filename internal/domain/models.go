// Package domain contains the core entities of the clinic service: the symptom
// catalog and condition rules used for self-assessment, and the appointment and
// SMS log records used by the reminder and cancellation workflow.
package domain

import (
	"time"
)

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// IsValid reports whether the status is one of the known values
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// DateLayout is the calendar-date format used for appointment dates
const DateLayout = "2006-01-02"

// Appointment represents a booked visit. Date is a calendar date (YYYY-MM-DD)
// and Time is the clinic's display time for the visit.
type Appointment struct {
	ID           string            `json:"id"`
	PatientID    string            `json:"patient_id"`
	PatientName  string            `json:"patient_name"`
	PatientPhone string            `json:"patient_phone"`
	DoctorID     string            `json:"doctor_id"`
	Date         string            `json:"date"`
	Time         string            `json:"time"`
	Status       AppointmentStatus `json:"status"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// SMSStatus is the outcome of a single outbound SMS attempt
type SMSStatus string

const (
	SMSSent   SMSStatus = "sent"
	SMSFailed SMSStatus = "failed"
)

// SMSLog is an append-only record of one outbound reminder attempt
type SMSLog struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	PhoneNumber   string    `json:"phone_number"`
	Message       string    `json:"message"`
	Status        SMSStatus `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// InboundMessage is a patient reply delivered by the messaging gateway
type InboundMessage struct {
	Body       string
	From       string
	MessageSID string
}
