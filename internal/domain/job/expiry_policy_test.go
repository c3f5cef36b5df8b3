package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpiryPolicy(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		policy, err := NewExpiryPolicy(time.Hour, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, policy.Default())
	})

	t.Run("invalid default", func(t *testing.T) {
		policy, err := NewExpiryPolicy(0, time.Hour)
		require.ErrorIs(t, err, ErrInvalidDefaultExpiry)
		assert.Nil(t, policy)
	})
}

func TestExpiryPolicy_Resolve(t *testing.T) {
	policy, err := NewExpiryPolicy(time.Hour, 6*time.Hour)
	require.NoError(t, err)

	t.Run("zero uses default", func(t *testing.T) {
		d := policy.Resolve(0)
		assert.Equal(t, time.Hour, d.Window)
		assert.True(t, d.UsedDefault())
	})

	t.Run("explicit window truncated to seconds", func(t *testing.T) {
		d := policy.Resolve(90*time.Minute + 300*time.Millisecond)
		assert.Equal(t, 90*time.Minute, d.Window)
		assert.Equal(t, ExpirySourceExplicit, d.Source)
	})

	t.Run("short window clamps to minimum", func(t *testing.T) {
		d := policy.Resolve(10 * time.Second)
		assert.Equal(t, MinExpiry, d.Window)
		assert.Equal(t, ExpirySourceClamped, d.Source)
	})

	t.Run("long window clamps to maximum", func(t *testing.T) {
		d := policy.Resolve(48 * time.Hour)
		assert.Equal(t, 6*time.Hour, d.Window)
		assert.Equal(t, ExpirySourceClamped, d.Source)
	})

	t.Run("expires at is never before creation", func(t *testing.T) {
		created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		d := policy.Resolve(-time.Minute)
		assert.False(t, d.ExpiresAt(created).Before(created))
	})
}
