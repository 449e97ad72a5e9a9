package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taportal_backend/internals/features/recruitment/ledger"
)

func TestMissing_RoleConditionalDegree(t *testing.T) {
	set := DocumentSet{
		DocCV:          {Submitted: true, URL: "https://drive/cv"},
		DocIdentity:    {Submitted: true, URL: "https://drive/id"},
		DocBankDetails: {Submitted: true, URL: "https://drive/bank"},
	}
	assert.True(t, set.Complete(ledger.Undergraduate))
	assert.Equal(t, []DocumentType{DocDegreeCertificate}, set.Missing(ledger.Postgraduate))

	set[DocIdentity] = DocumentEntry{Submitted: true}
	assert.Equal(t, []DocumentType{DocIdentity}, set.Missing(ledger.Undergraduate), "no url means not submitted")
}

func TestMerge_KeepsStoredEntries(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	stored := DocumentSet{}.Merge(DocumentSet{DocCV: {Submitted: true, URL: "a"}}, t0)

	merged := stored.Merge(DocumentSet{
		DocCV:         {Submitted: true, URL: "a"},
		DocTranscript: {Submitted: false},
		DocIdentity:   {Submitted: true, URL: "b"},
	}, t1)

	assert.Equal(t, t0, *merged[DocCV].SubmittedAt, "same url keeps first timestamp")
	assert.Equal(t, t1, *merged[DocIdentity].SubmittedAt)
	_, ok := merged[DocTranscript]
	assert.False(t, ok)
	assert.Len(t, stored, 1, "receiver untouched")
}

func TestBlocksAppointment(t *testing.T) {
	assert.True(t, SubmissionPending.BlocksAppointment())
	assert.True(t, SubmissionSubmitted.BlocksAppointment(), "not reviewed yet")
	assert.False(t, SubmissionApproved.BlocksAppointment())
	assert.True(t, SubmissionAdditionalRequired.BlocksAppointment())
	assert.True(t, SubmissionRejected.BlocksAppointment())
}
