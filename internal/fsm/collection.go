package fsm

import (
	"fmt"
	"time"

	"github.com/homologa-digital/homologa/internal/model"
	"github.com/homologa-digital/homologa/internal/validate"
)

// ImageKey builds the case-level key for one required image of an element.
func ImageKey(elementCode, imageName string) string {
	return elementCode + "/" + imageName
}

// enterImageCollection prepares the per-element sub-cycle when the case
// enters StepCollectImages: computes the required image list once and points
// the cycle at the first unfinished element.
func (m *Machine) enterImageCollection(state *model.CaseState) {
	if len(state.RequiredImages) == 0 {
		for _, code := range state.Elements {
			elem, ok := m.catalog.ElementByCode(code)
			if !ok {
				continue
			}
			for _, img := range elem.RequiredImages {
				state.RequiredImages = append(state.RequiredImages, ImageKey(elem.Code, img))
			}
		}
	}

	m.recomputePendingImages(state)
	m.advanceElement(state)
}

// advanceElement points the sub-cycle at the next unfinished element, or
// clears it when every element is complete.
func (m *Machine) advanceElement(state *model.CaseState) {
	next, ok := state.NextPendingElement()
	if !ok {
		state.CurrentElement = ""
		state.Phase = ""
		return
	}

	state.CurrentElement = next
	if state.ElementStatus[next] == model.ElementPhotosDone {
		state.Phase = model.PhaseData
	} else {
		state.Phase = model.PhasePhotos
	}
}

// RecordImage registers one received image during the photos phase. Unknown
// and duplicate keys are ignored; the pending list shrinks accordingly.
func (m *Machine) RecordImage(state *model.CaseState, imageKey string) error {
	if state.Step != model.StepCollectImages {
		return fmt.Errorf("images can only be recorded in %s, case is in %s", model.StepCollectImages, state.Step)
	}

	required := false
	for _, key := range state.RequiredImages {
		if key == imageKey {
			required = true
			break
		}
	}
	if !required {
		return fmt.Errorf("image %q is not required for this case", imageKey)
	}

	for _, key := range state.ReceivedImages {
		if key == imageKey {
			return nil
		}
	}

	state.ReceivedImages = append(state.ReceivedImages, imageKey)
	state.UpdatedAt = time.Now().UTC()
	m.recomputePendingImages(state)
	return nil
}

// MarkPhotosDone exits the photos phase for the current element on the
// user's signal. Elements with no required fields skip the data phase and
// are complete immediately.
func (m *Machine) MarkPhotosDone(state *model.CaseState) error {
	if state.Step != model.StepCollectImages || state.Phase != model.PhasePhotos {
		return fmt.Errorf("no element is in the photos phase")
	}

	code := state.CurrentElement
	elem, ok := m.catalog.ElementByCode(code)
	if !ok {
		return fmt.Errorf("unknown element code %q", code)
	}

	collected := state.ElementData[code]
	if len(elem.RequiredFields(collected, validate.FieldVisible)) == 0 {
		state.ElementStatus[code] = model.ElementComplete
		state.UpdatedAt = time.Now().UTC()
		m.advanceElement(state)
		return nil
	}

	state.ElementStatus[code] = model.ElementPhotosDone
	state.Phase = model.PhaseData
	state.UpdatedAt = time.Now().UTC()
	return nil
}

// SubmitElementFields merges values into the current element's collected data
// and validates the cumulative set. The element completes only when every
// required visible field is present and valid; until then the failures are
// returned by field name.
func (m *Machine) SubmitElementFields(state *model.CaseState, values map[string]string) ([]validate.FieldError, error) {
	if state.Step != model.StepCollectImages || state.Phase != model.PhaseData {
		return nil, fmt.Errorf("no element is in the data phase")
	}

	code := state.CurrentElement
	elem, ok := m.catalog.ElementByCode(code)
	if !ok {
		return nil, fmt.Errorf("unknown element code %q", code)
	}

	if state.ElementData == nil {
		state.ElementData = make(map[string]map[string]string)
	}
	collected := state.ElementData[code]
	if collected == nil {
		collected = make(map[string]string)
		state.ElementData[code] = collected
	}
	for name, value := range values {
		collected[name] = value
	}
	state.UpdatedAt = time.Now().UTC()

	failures := validate.ValidateFields(elem.Fields, collected)
	if len(failures) > 0 {
		return failures, nil
	}

	state.ElementStatus[code] = model.ElementComplete
	m.advanceElement(state)
	return nil, nil
}

// ImagesComplete reports whether every required image has been received.
func (m *Machine) ImagesComplete(state *model.CaseState) bool {
	return len(state.PendingImages) == 0
}

// SubmitPersonal validates and stores the customer's personal fields.
// Only legal while the case collects personal data.
func (m *Machine) SubmitPersonal(state *model.CaseState, personal model.PersonalData) ([]validate.FieldError, error) {
	if state.Step != model.StepCollectPersonal {
		return nil, fmt.Errorf("personal data can only be submitted in %s, case is in %s", model.StepCollectPersonal, state.Step)
	}

	var failures []validate.FieldError
	if personal.Email != nil && !validate.ValidateEmail(*personal.Email) {
		failures = append(failures, validate.FieldError{Field: "email", Reason: "invalid email address"})
	}
	if personal.DNI != nil && !validate.ValidateDNICIF(*personal.DNI) {
		failures = append(failures, validate.FieldError{Field: "dni", Reason: "invalid DNI/NIE/CIF"})
	}
	if personal.PostalCode != nil && !validate.ValidatePostalCode(*personal.PostalCode) {
		failures = append(failures, validate.FieldError{Field: "postal_code", Reason: "invalid postal code"})
	}
	if len(failures) > 0 {
		return failures, nil
	}

	mergePersonal(&state.Personal, personal)
	state.UpdatedAt = time.Now().UTC()
	return nil, nil
}

// SubmitVehicle validates and stores the vehicle fields. Collected alongside
// personal data.
func (m *Machine) SubmitVehicle(state *model.CaseState, vehicle model.VehicleData) ([]validate.FieldError, error) {
	if state.Step != model.StepCollectPersonal {
		return nil, fmt.Errorf("vehicle data can only be submitted in %s, case is in %s", model.StepCollectPersonal, state.Step)
	}

	if vehicle.Matricula != nil {
		normalized := validate.NormalizeMatricula(*vehicle.Matricula)
		if !validate.ValidateMatricula(normalized) {
			return []validate.FieldError{{Field: "matricula", Reason: "invalid vehicle plate"}}, nil
		}
		vehicle.Matricula = &normalized
	}

	mergeVehicle(&state.Vehicle, vehicle)
	state.UpdatedAt = time.Now().UTC()
	return nil, nil
}

// SubmitWorkshop validates and stores the workshop fields.
func (m *Machine) SubmitWorkshop(state *model.CaseState, workshop model.WorkshopData) ([]validate.FieldError, error) {
	if state.Step != model.StepCollectWorkshop {
		return nil, fmt.Errorf("workshop data can only be submitted in %s, case is in %s", model.StepCollectWorkshop, state.Step)
	}

	if workshop.PostalCode != nil && !validate.ValidatePostalCode(*workshop.PostalCode) {
		return []validate.FieldError{{Field: "postal_code", Reason: "invalid postal code"}}, nil
	}

	mergeWorkshop(&state.Workshop, workshop)
	state.UpdatedAt = time.Now().UTC()
	return nil, nil
}

func (m *Machine) recomputePendingImages(state *model.CaseState) {
	received := make(map[string]struct{}, len(state.ReceivedImages))
	for _, key := range state.ReceivedImages {
		received[key] = struct{}{}
	}

	pending := make([]string, 0, len(state.RequiredImages))
	for _, key := range state.RequiredImages {
		if _, ok := received[key]; !ok {
			pending = append(pending, key)
		}
	}
	state.PendingImages = pending
}

func mergePersonal(dst *model.PersonalData, src model.PersonalData) {
	if src.FullName != nil {
		dst.FullName = src.FullName
	}
	if src.Email != nil {
		dst.Email = src.Email
	}
	if src.DNI != nil {
		dst.DNI = src.DNI
	}
	if src.Phone != nil {
		dst.Phone = src.Phone
	}
	if src.PostalCode != nil {
		dst.PostalCode = src.PostalCode
	}
}

func mergeVehicle(dst *model.VehicleData, src model.VehicleData) {
	if src.Matricula != nil {
		dst.Matricula = src.Matricula
	}
	if src.Brand != nil {
		dst.Brand = src.Brand
	}
	if src.Model != nil {
		dst.Model = src.Model
	}
	if src.VIN != nil {
		dst.VIN = src.VIN
	}
}

func mergeWorkshop(dst *model.WorkshopData, src model.WorkshopData) {
	if src.Name != nil {
		dst.Name = src.Name
	}
	if src.Address != nil {
		dst.Address = src.Address
	}
	if src.PostalCode != nil {
		dst.PostalCode = src.PostalCode
	}
	if src.Phone != nil {
		dst.Phone = src.Phone
	}
}
