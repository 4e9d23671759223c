package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefsStoreDefaultsWhenUnset(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewPrefsStore(client)
	doctorID := uuid.New()

	p, err := store.Get(context.Background(), doctorID)
	require.NoError(t, err)
	assert.Equal(t, doctorID, p.DoctorID)
	assert.Equal(t, MustTimeOfDay("09:00"), p.WorkdayStart)
	assert.Equal(t, MustTimeOfDay("17:00"), p.WorkdayEnd)
	assert.Equal(t, 20, p.SlotMinutes)
}

func TestPrefsStoreRoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewPrefsStore(client)
	ctx := context.Background()
	doctorID := uuid.New()

	ls, le := MustTimeOfDay("12:00"), MustTimeOfDay("12:40")
	in := &DoctorPreferences{
		DoctorID:     doctorID,
		WorkdayStart: MustTimeOfDay("08:00"),
		WorkdayEnd:   MustTimeOfDay("16:00"),
		SlotMinutes:  30,
		LunchStart:   &ls,
		LunchEnd:     &le,
	}
	require.NoError(t, store.Set(ctx, in))

	out, err := store.Get(ctx, doctorID)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPrefsStoreRejectsInvalid(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewPrefsStore(client)
	doctorID := uuid.New()

	p := DefaultPreferences(doctorID)
	p.SlotMinutes = -5
	err := store.Set(context.Background(), p)
	assert.ErrorIs(t, err, ErrInvalidPreferences)

	// Nothing was stored, so the read still yields defaults.
	out, err := store.Get(context.Background(), doctorID)
	require.NoError(t, err)
	assert.Equal(t, 20, out.SlotMinutes)
}
