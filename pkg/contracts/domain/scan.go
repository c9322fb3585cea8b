package domain

import (
	"math"
	"time"
)

// Pipeline identifies which summary pipeline a run belongs to
type Pipeline string

const (
	// PipelineAO is the device-filtered study-eye pipeline
	PipelineAO Pipeline = "ao"
	// PipelineRGX is the rolling-coverage pipeline with spread statistics
	PipelineRGX Pipeline = "rgx"
)

// String returns the pipeline name
func (p Pipeline) String() string {
	return string(p)
}

// Valid reports whether p is a known pipeline
func (p Pipeline) Valid() bool {
	return p == PipelineAO || p == PipelineRGX
}

// Column names of the raw scan sheet
const (
	ColumnStudySubjectID       = "StudySubjectID"
	ColumnEye                  = "Eye"
	ColumnScanStartTime        = "ScanStartTime"
	ColumnDNMSI                = "DN_MSI"
	ColumnUpdateLongiPositions = "UpdateLongiPositions"
	ColumnEligibleQuant        = "EligibleQuant"
	ColumnIsIncluded           = "Isincluded"
	ColumnUniqueIdentifier     = "UniqueIdentifier"
)

// PatientEyeSeparator joins subject and eye into the grouping key
const PatientEyeSeparator = "_"

// ScanRecord is one loaded row of the raw scan sheet.
// Records are built once by the loader and never modified afterwards.
type ScanRecord struct {
	Row              int               `json:"row"`
	SubjectID        string            `json:"subject_id"`
	Eye              string            `json:"eye"`
	PatientEye       string            `json:"patient_eye"`
	ScanStart        time.Time         `json:"scan_start"`
	DNMSI            float64           `json:"dn_msi"`
	UniqueIdentifier string            `json:"unique_identifier,omitempty"`
	DeviceID         string            `json:"device_id,omitempty"`
	IsIncluded       int               `json:"is_included"`
	Passthrough      map[string]string `json:"passthrough,omitempty"`
}

// HasDNMSI reports whether the image-quality score was present
func (r ScanRecord) HasDNMSI() bool {
	return !math.IsNaN(r.DNMSI)
}

// ScanDate returns the calendar date of the scan at midnight UTC
func (r ScanRecord) ScanDate() time.Time {
	y, m, d := r.ScanStart.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PatientEyeKey builds the composite grouping key for a subject and eye
func PatientEyeKey(subjectID, eye string) string {
	return subjectID + PatientEyeSeparator + eye
}

// PatientEyeGroup holds every record sharing one PatientEye key
type PatientEyeGroup struct {
	Key     string       `json:"key"`
	Records []ScanRecord `json:"records"`
}

// Len returns the number of records in the group
func (g PatientEyeGroup) Len() int {
	return len(g.Records)
}

// Empty reports whether the group has no records
func (g PatientEyeGroup) Empty() bool {
	return len(g.Records) == 0
}
