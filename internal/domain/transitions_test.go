package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenTransitions_AcceptsAnyStatus(t *testing.T) {
	p := OpenTransitions{}

	assert.NoError(t, p.Allow(ReviewStatusPending, ReviewStatusApproved))
	assert.NoError(t, p.Allow(ReviewStatusApproved, ReviewStatusPending))
	assert.NoError(t, p.Allow(ReviewStatusRejected, "needs_site_visit"))
	assert.NoError(t, p.Allow(ReviewStatusPending, ""))
}

func TestStrictTransitions(t *testing.T) {
	p := StrictTransitions{}

	tests := []struct {
		from, to ReviewStatus
		ok       bool
	}{
		{ReviewStatusPending, ReviewStatusApproved, true},
		{ReviewStatusPending, ReviewStatusRejected, true},
		{ReviewStatusPending, ReviewStatusPending, false},
		{ReviewStatusApproved, ReviewStatusRejected, false},
		{ReviewStatusRejected, ReviewStatusApproved, false},
		{ReviewStatusPending, "escalated", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := p.Allow(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestFieldSet_IsPopulated(t *testing.T) {
	f := FieldSet{
		CustomerName:       "Jane Doe",
		PanelSerialNumbers: []string{},
	}

	assert.True(t, f.IsPopulated(FieldCustomerName))
	assert.False(t, f.IsPopulated(FieldCustomerAddress))
	assert.False(t, f.IsPopulated(FieldPanelSerialNumbers))
	assert.False(t, f.IsPopulated(FieldSignatureFound))
	assert.True(t, f.MissingAny(DefaultCriticalFields))

	f.SystemCapacityKW = "5.5"
	f.PanelSerialNumbers = []string{"PNL-1"}
	assert.False(t, f.MissingAny(DefaultCriticalFields))
}

func TestFieldSet_CloneIsDeep(t *testing.T) {
	f := FieldSet{PanelSerialNumbers: []string{"A1"}}
	c := f.Clone()
	c.PanelSerialNumbers[0] = "B2"
	assert.Equal(t, "A1", f.PanelSerialNumbers[0])
}

func TestFileTypeFromName(t *testing.T) {
	ft, ok := FileTypeFromName("permit.PDF")
	assert.True(t, ok)
	assert.Equal(t, FileTypePDF, ft)

	_, ok = FileTypeFromName("notes.docx")
	assert.False(t, ok)

	_, ok = FileTypeFromName("noext")
	assert.False(t, ok)
}
