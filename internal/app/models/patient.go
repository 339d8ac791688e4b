package models

import "time"

const (
	PatientStatusActive     = "Active"
	PatientStatusDischarged = "Discharged"
)

// Patient is the summary row returned by GET /patients.
type Patient struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	Diagnosis     string `json:"diagnosis"`
	AdmissionDate string `json:"admissionDate,omitempty"`
	Status        string `json:"status"`
	DoctorID      UserID `json:"doctorId,omitempty"`
	CaretakerID   UserID `json:"caretakerId,omitempty"`
}

// PatientDetail is a patient with its vitals, newest first.
type PatientDetail struct {
	Patient
	Vitals []Vitals `json:"vitals"`
}

// LatestVitals returns at most n of the newest readings.
func (p PatientDetail) LatestVitals(n int) []Vitals {
	if len(p.Vitals) <= n {
		return p.Vitals
	}
	return p.Vitals[:n]
}

// Vitals is one recorded set of measurements. Every measurement is optional.
type Vitals struct {
	ID            int64    `json:"id"`
	HeartRate     *int     `json:"heartRate,omitempty"`
	BloodPressure string   `json:"bloodPressure,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	OxygenLevel   *int     `json:"oxygenLevel,omitempty"`
	RecordedAt    string   `json:"recordedAt,omitempty"`
}

// NewPatient is the payload for POST /patients.
type NewPatient struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Diagnosis string `json:"diagnosis"`
	Status    string `json:"status"`
}

// NewVitals is the payload for POST /patients/:id/vitals. Blank fields are omitted.
type NewVitals struct {
	HeartRate     *int     `json:"heartRate,omitempty"`
	BloodPressure string   `json:"bloodPressure,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	OxygenLevel   *int     `json:"oxygenLevel,omitempty"`
}

// Empty reports whether no measurement was supplied.
func (v NewVitals) Empty() bool {
	return v.HeartRate == nil && v.BloodPressure == "" && v.Temperature == nil && v.OxygenLevel == nil
}

// PatientUpdate is the payload for PATCH /patients/:id.
type PatientUpdate struct {
	Status      string `json:"status,omitempty"`
	DoctorID    UserID `json:"doctorId,omitempty"`
	CaretakerID UserID `json:"caretakerId,omitempty"`
}

// isoLayouts covers the timestamps the backend emits: Python isoformat with and
// without fractional seconds, and RFC 3339.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a backend timestamp. ok is false for blank or unknown formats.
func ParseTimestamp(s string) (t time.Time, ok bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
