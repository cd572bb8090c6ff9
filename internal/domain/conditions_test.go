package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConditions(t *testing.T) {
	c := DefaultConditions()

	assert.Equal(t, 7.4, c.PH)
	assert.Equal(t, 0.15, c.IonicStrength)
	assert.False(t, c.CofactorPresent)
	assert.Equal(t, 0.0, c.SulfationLevel)
}

func TestConditionsFromRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  map[string]any
		want    Conditions
		wantErr bool
	}{
		{
			name:   "nil record uses defaults",
			record: nil,
			want:   DefaultConditions(),
		},
		{
			name:   "json floats",
			record: map[string]any{"pH": 6.8, "ionic_strength": 0.3},
			want:   Conditions{PH: 6.8, IonicStrength: 0.3},
		},
		{
			name:   "yaml ints and numeric strings",
			record: map[string]any{"pH": 7, "glycosaminoglycan_sulfation_level": "2"},
			want:   Conditions{PH: 7, IonicStrength: DefaultIonicStrength, SulfationLevel: 2},
		},
		{
			name:   "cofactor name is truthy",
			record: map[string]any{"cofactor": "Zn2+"},
			want:   Conditions{PH: DefaultPH, IonicStrength: DefaultIonicStrength, CofactorPresent: true},
		},
		{
			name:   "empty cofactor is falsy",
			record: map[string]any{"cofactor": ""},
			want:   DefaultConditions(),
		},
		{
			name:   "null cofactor is falsy",
			record: map[string]any{"cofactor": nil},
			want:   DefaultConditions(),
		},
		{
			name:    "non numeric pH",
			record:  map[string]any{"pH": "neutral"},
			wantErr: true,
		},
		{
			name:    "null ionic strength",
			record:  map[string]any{"ionic_strength": nil},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConditionsFromRecord(tt.record)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditions_WithersDoNotMutate(t *testing.T) {
	base := DefaultConditions()
	swept := base.WithPH(6.5).WithIonicStrength(0.05)

	assert.Equal(t, 6.5, swept.PH)
	assert.Equal(t, 0.05, swept.IonicStrength)
	assert.Equal(t, DefaultConditions(), base)
}
