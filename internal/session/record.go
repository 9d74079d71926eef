package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/loganlanou/stationcargo/internal/identity"
)

// DefaultKey is the slot key holding the persisted credential record.
const DefaultKey = "stationcargo.session"

const recordVersion = 1

var errMalformedRecord = errors.New("malformed session record")

type record struct {
	Version int            `json:"version"`
	User    *identity.User `json:"user"`
	Token   string         `json:"token,omitempty"`
	SavedAt time.Time      `json:"savedAt"`
}

func encodeRecord(u *identity.User, token string, savedAt time.Time) (string, error) {
	b, err := json.Marshal(record{
		Version: recordVersion,
		User:    u,
		Token:   token,
		SavedAt: savedAt.UTC().Truncate(time.Second),
	})
	if err != nil {
		return "", fmt.Errorf("encode session record: %w", err)
	}
	return string(b), nil
}

func decodeRecord(raw string) (*identity.User, string, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, "", fmt.Errorf("%w: %v", errMalformedRecord, err)
	}
	if rec.Version != recordVersion {
		return nil, "", fmt.Errorf("%w: version %d", errMalformedRecord, rec.Version)
	}
	if !rec.User.Valid() {
		return nil, "", fmt.Errorf("%w: missing identity", errMalformedRecord)
	}
	return rec.User, rec.Token, nil
}
