package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taportal_backend/internals/helpers/apperror"
)

func TestNext_HappyPath(t *testing.T) {
	path := []struct {
		action Action
		want   Stage
	}{
		{ActionRequestChanges, PendingChanges},
		{ActionSubmitChanges, ChangesSubmitted},
		{ActionAdvertise, Advertised},
		{ActionMarkFull, Full},
		{ActionStartDocuments, GettingDocuments},
		{ActionClose, Closed},
		{ActionArchive, Archived},
	}
	cur := Initialised
	for _, step := range path {
		next, err := Next(cur, step.action)
		require.NoError(t, err, "%s from %s", step.action, cur)
		assert.Equal(t, step.want, next)
		cur = next
	}
}

func TestNext_Invalid(t *testing.T) {
	cases := []struct {
		from   Stage
		action Action
	}{
		{Closed, ActionAdvertise},
		{Archived, ActionClose},
		{Initialised, ActionAdvertise},
		{GettingDocuments, ActionMarkFull},
		{Advertised, ActionArchive},
		{Full, ActionAdvertise},
	}
	for _, tc := range cases {
		to, err := Next(tc.from, tc.action)
		assert.True(t, apperror.Is(err, apperror.CodeInvalidStatusTransition), "%s from %s", tc.action, tc.from)
		assert.Equal(t, tc.from, to)
	}
}

func TestGuard(t *testing.T) {
	assert.NoError(t, Guard(Advertised, OpApply))
	assert.True(t, apperror.Is(Guard(Full, OpApply), apperror.CodeModuleNotAcceptingApplications))
	assert.True(t, apperror.Is(Guard(Closed, OpAccept), apperror.CodeInvalidStatusTransition))
	assert.True(t, apperror.Is(Guard(Closed, OpReject), apperror.CodeInvalidStatusTransition))
	assert.True(t, apperror.Is(Guard(Advertised, OpSubmitDocuments), apperror.CodeModuleNotAcceptingDocuments))
	assert.NoError(t, Guard(GettingDocuments, OpSubmitDocuments))
	assert.NoError(t, Guard(GettingDocuments, OpAccept))
}

func TestAvailableActions(t *testing.T) {
	assert.ElementsMatch(t, []Action{ActionReopenChanges, ActionAdvertise, ActionSubmitChanges}, AvailableActions(ChangesSubmitted))
	assert.Empty(t, AvailableActions(Archived))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction(" Advertise ")
	assert.True(t, ok)
	assert.Equal(t, ActionAdvertise, a)

	_, ok = ParseAction("mark-full")
	assert.False(t, ok, "automatic only")
}
