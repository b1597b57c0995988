package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{StatusNew, StatusInProgress, StatusDone, StatusCancelled}

func TestValidateTransition(t *testing.T) {
	allowed := map[Status][]Status{
		StatusNew:        {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusDone, StatusCancelled},
		StatusDone:       {StatusNew, StatusInProgress},
		StatusCancelled:  {StatusNew, StatusInProgress},
	}

	t.Run("Should accept every pair inside the table", func(t *testing.T) {
		for from, targets := range allowed {
			for _, to := range targets {
				assert.NoError(t, ValidateTransition(from, to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("Should accept a self-transition as a no-op", func(t *testing.T) {
		for _, s := range allStatuses {
			assert.NoError(t, ValidateTransition(s, s))
		}
	})

	t.Run("Should reject every pair outside the table", func(t *testing.T) {
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				if from == to || contains(allowed[from], to) {
					continue
				}
				err := ValidateTransition(from, to)
				require.Error(t, err, "%s -> %s", from, to)
				var invalid *InvalidTransitionError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, from, invalid.From)
				assert.Equal(t, to, invalid.To)
				assert.ElementsMatch(t, allowed[from], invalid.Valid)
			}
		}
	})

	t.Run("Should name valid destinations in the error message", func(t *testing.T) {
		err := ValidateTransition(StatusNew, StatusDone)
		require.Error(t, err)
		assert.Contains(t, err.Error(), string(StatusInProgress))
		assert.Contains(t, err.Error(), string(StatusCancelled))
	})

	t.Run("Should reject the notable forbidden pairs", func(t *testing.T) {
		var invalid *InvalidTransitionError
		assert.True(t, errors.As(ValidateTransition(StatusNew, StatusDone), &invalid))
		assert.True(t, errors.As(ValidateTransition(StatusDone, StatusCancelled), &invalid))
		assert.True(t, errors.As(ValidateTransition(StatusCancelled, StatusDone), &invalid))
	})
}

func contains(set []Status, s Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
