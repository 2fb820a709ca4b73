package model

import (
	"fmt"
	"time"
)

// Step is one of the seven collection states a case moves through.
type Step string

const (
	// StepIdle is the initial state; nothing has been confirmed yet.
	StepIdle Step = "IDLE"
	// StepConfirmStart waits for the customer to confirm the element list.
	StepConfirmStart Step = "CONFIRM_START"
	// StepCollectImages gathers photos and per-element data, one element at a time.
	StepCollectImages Step = "COLLECT_IMAGES"
	// StepCollectPersonal gathers the customer's personal and vehicle data.
	StepCollectPersonal Step = "COLLECT_PERSONAL"
	// StepCollectWorkshop gathers the installing workshop's data.
	StepCollectWorkshop Step = "COLLECT_WORKSHOP"
	// StepReviewSummary shows the collected case for confirmation or edits.
	StepReviewSummary Step = "REVIEW_SUMMARY"
	// StepCompleted is terminal.
	StepCompleted Step = "COMPLETED"
)

// Steps lists every step in lifecycle order.
var Steps = []Step{
	StepIdle,
	StepConfirmStart,
	StepCollectImages,
	StepCollectPersonal,
	StepCollectWorkshop,
	StepReviewSummary,
	StepCompleted,
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	for _, known := range Steps {
		if s == known {
			return true
		}
	}
	return false
}

// ElementStatus tracks collection progress for one element.
type ElementStatus string

const (
	// ElementPending means nothing has been collected yet.
	ElementPending ElementStatus = "pending"
	// ElementPhotosDone means photos are in; structured data is still missing.
	ElementPhotosDone ElementStatus = "photos_done"
	// ElementComplete means photos and required data are both in.
	ElementComplete ElementStatus = "complete"
)

// CollectionPhase is the two-phase sub-cycle each element goes through while
// the case sits in StepCollectImages.
type CollectionPhase string

const (
	// PhasePhotos collects that element's photos.
	PhasePhotos CollectionPhase = "photos"
	// PhaseData collects that element's structured fields.
	PhaseData CollectionPhase = "data"
)

// PersonalData holds the customer's contact and identity fields.
// Pointers distinguish "not collected" from "collected empty".
type PersonalData struct {
	FullName   *string `json:"full_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	DNI        *string `json:"dni,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

// VehicleData holds the vehicle identification fields.
type VehicleData struct {
	Matricula *string `json:"matricula,omitempty"`
	Brand     *string `json:"brand,omitempty"`
	Model     *string `json:"model,omitempty"`
	VIN       *string `json:"vin,omitempty"`
}

// WorkshopData holds the installing workshop's fields.
type WorkshopData struct {
	Name       *string `json:"name,omitempty"`
	Address    *string `json:"address,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// CaseState is the full collection state of one homologation case. It is the
// wire contract with the persistence layer and must round-trip losslessly
// through JSON.
type CaseState struct {
	CreatedAt      time.Time                    `json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`
	ElementStatus  map[string]ElementStatus     `json:"element_status"`
	ElementData    map[string]map[string]string `json:"element_data,omitempty"`
	CaseID         string                       `json:"case_id"`
	Step           Step                         `json:"step"`
	CurrentElement string                       `json:"current_element,omitempty"`
	Phase          CollectionPhase              `json:"phase,omitempty"`
	ErrorMessage   string                       `json:"error_message,omitempty"`
	Elements       []string                     `json:"elements"`
	RequiredImages []string                     `json:"required_images"`
	ReceivedImages []string                     `json:"received_images"`
	PendingImages  []string                     `json:"pending_images"`
	Personal       PersonalData                 `json:"personal"`
	Vehicle        VehicleData                  `json:"vehicle"`
	Workshop       WorkshopData                 `json:"workshop"`
	RetryCount     int                          `json:"retry_count"`
}

// NewCaseState creates a case in the initial state for the given elements.
func NewCaseState(caseID string, elements []string) *CaseState {
	status := make(map[string]ElementStatus, len(elements))
	for _, code := range elements {
		status[code] = ElementPending
	}

	now := time.Now().UTC()
	return &CaseState{
		CaseID:         caseID,
		Step:           StepIdle,
		Elements:       elements,
		ElementStatus:  status,
		ElementData:    make(map[string]map[string]string),
		RequiredImages: []string{},
		ReceivedImages: []string{},
		PendingImages:  []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AllElementsComplete reports whether every element has finished both phases.
func (s *CaseState) AllElementsComplete() bool {
	for _, code := range s.Elements {
		if s.ElementStatus[code] != ElementComplete {
			return false
		}
	}
	return true
}

// NextPendingElement returns the first element not yet complete, in list order.
func (s *CaseState) NextPendingElement() (string, bool) {
	for _, code := range s.Elements {
		if s.ElementStatus[code] != ElementComplete {
			return code, true
		}
	}
	return "", false
}

// Validate ensures the state record is internally consistent.
func (s *CaseState) Validate() error {
	if s.CaseID == "" {
		return fmt.Errorf("case id is required")
	}
	if !s.Step.Valid() {
		return fmt.Errorf("unknown step %q", s.Step)
	}
	for code, status := range s.ElementStatus {
		switch status {
		case ElementPending, ElementPhotosDone, ElementComplete:
		default:
			return fmt.Errorf("element %s has unknown status %q", code, status)
		}
	}
	return nil
}
