package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCaseState(t *testing.T) {
	state := NewCaseState("case-1", []string{"ESCAPE", "MANILLAR"})

	assert.Equal(t, StepIdle, state.Step)
	assert.Equal(t, ElementPending, state.ElementStatus["ESCAPE"])
	assert.Equal(t, ElementPending, state.ElementStatus["MANILLAR"])
	assert.False(t, state.AllElementsComplete())

	next, ok := state.NextPendingElement()
	require.True(t, ok)
	assert.Equal(t, "ESCAPE", next)
}

func TestCaseStateJSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	plate := "1234BCD"
	name := "Ana García"

	original := &CaseState{
		CaseID:         "case-1",
		Step:           StepCollectImages,
		Elements:       []string{"ESCAPE", "MANILLAR"},
		ElementStatus:  map[string]ElementStatus{"ESCAPE": ElementPhotosDone, "MANILLAR": ElementPending},
		ElementData:    map[string]map[string]string{"ESCAPE": {"marca": "Akrapovic"}},
		CurrentElement: "ESCAPE",
		Phase:          PhaseData,
		RequiredImages: []string{"ESCAPE/frontal", "MANILLAR/general"},
		ReceivedImages: []string{"ESCAPE/frontal"},
		PendingImages:  []string{"MANILLAR/general"},
		Personal:       PersonalData{FullName: &name},
		Vehicle:        VehicleData{Matricula: &plate},
		RetryCount:     1,
		ErrorMessage:   "imagen no reconocida",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded CaseState
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, *original, decoded)
}

func TestCaseStateValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CaseState)
		wantErr bool
	}{
		{name: "valid", mutate: func(*CaseState) {}},
		{name: "missing id", mutate: func(s *CaseState) { s.CaseID = "" }, wantErr: true},
		{name: "unknown step", mutate: func(s *CaseState) { s.Step = "LIMBO" }, wantErr: true},
		{
			name:    "unknown element status",
			mutate:  func(s *CaseState) { s.ElementStatus["ESCAPE"] = "perdido" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewCaseState("case-1", []string{"ESCAPE"})
			tt.mutate(state)

			err := state.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStepValid(t *testing.T) {
	for _, s := range Steps {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Step("LIMBO").Valid())
	assert.False(t, Step("").Valid())
}
