package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const prefsKeyPrefix = "doctor:prefs:"

// PrefsStore persists per-doctor preferences as JSON in Redis.
type PrefsStore struct {
	client *redis.Client
}

// NewPrefsStore creates a preferences store.
func NewPrefsStore(client *redis.Client) *PrefsStore {
	return &PrefsStore{client: client}
}

func prefsKey(doctorID uuid.UUID) string {
	return prefsKeyPrefix + doctorID.String()
}

// Get returns the doctor's preferences, falling back to defaults when none
// are stored.
func (s *PrefsStore) Get(ctx context.Context, doctorID uuid.UUID) (*DoctorPreferences, error) {
	data, err := s.client.Get(ctx, prefsKey(doctorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultPreferences(doctorID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling: get preferences: %w", err)
	}
	var p DoctorPreferences
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("scheduling: decode preferences: %w", err)
	}
	p.DoctorID = doctorID
	return &p, nil
}

// Set validates and stores the doctor's preferences.
func (s *PrefsStore) Set(ctx context.Context, p *DoctorPreferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("scheduling: encode preferences: %w", err)
	}
	if err := s.client.Set(ctx, prefsKey(p.DoctorID), data, 0).Err(); err != nil {
		return fmt.Errorf("scheduling: set preferences: %w", err)
	}
	return nil
}
