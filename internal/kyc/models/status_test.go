package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kycore/pkg/domain-errors"
)

func TestStatusPredicates(t *testing.T) {
	cases := []struct {
		status     Status
		needs      bool
		resumable  bool
		inProgress bool
		completed  bool
		failed     bool
	}{
		{StatusNotStarted, true, false, false, false, false},
		{StatusRequestPending, false, true, true, false, false},
		{StatusInProgress, false, true, true, false, false},
		{StatusReviewPending, false, false, true, false, false},
		{StatusVerificationCompleted, false, false, false, true, false},
		{StatusVerificationFailed, true, false, false, false, true},
		{StatusVerificationCancelled, true, false, false, false, false},
		{StatusRequestTimeout, true, false, false, false, true},
		{StatusCompleted, false, false, false, true, false},
		{StatusRejected, false, false, false, false, true},
	}
	require.Len(t, cases, len(AllStatuses))

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.needs, tc.status.NeedsAction())
			assert.Equal(t, tc.needs, tc.status.CanStartIdentityVerification())
			assert.Equal(t, tc.resumable, tc.status.CanBeResumed())
			assert.Equal(t, tc.needs || tc.resumable, tc.status.NeedsVerificationOrResume())
			assert.Equal(t, tc.inProgress, tc.status.IsInProgress())
			assert.Equal(t, tc.completed, tc.status.IsCompleted())
			assert.Equal(t, tc.failed, tc.status.IsFailed())
			assert.NotEmpty(t, tc.status.Label())
			assert.NotEmpty(t, tc.status.Description())
			assert.NotEmpty(t, tc.status.Color())
		})
	}
}

func TestProgressCategoriesAreExclusive(t *testing.T) {
	for _, s := range AllStatuses {
		n := 0
		for _, in := range []bool{s.IsInProgress(), s.IsCompleted(), s.IsFailed()} {
			if in {
				n++
			}
		}
		assert.LessOrEqual(t, n, 1, "status %s belongs to more than one category", s)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("In_Progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = ParseStatus("approved")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
