// Package tablestore keeps named tables as JSON arrays in a key-value store,
// one key per table, alongside the session and schema-version markers.
package tablestore

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// Reserved key suffixes.
const (
	keyVersion = "version"
	keySession = "session"
)

// Store reads and writes whole tables. Every mutation is a full
// read-modify-write by the caller; the last SetTable wins.
type Store struct {
	kv     types.KeyValueStore
	prefix string
	log    *zap.Logger
}

// New returns a Store over kv with every key prefixed by prefix.
func New(kv types.KeyValueStore, prefix string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, prefix: prefix, log: log}
}

// Key returns the key a table is stored under.
func (s *Store) Key(name types.TableName) string {
	return s.prefix + string(name)
}

// GetTable returns the records of name. A missing, unreadable, or corrupt
// table reads as empty.
func (s *Store) GetTable(name types.TableName) []types.Record {
	data, ok, err := s.kv.Get(s.Key(name))
	if err != nil {
		s.log.Warn("reading table failed; treating as empty", zap.String("table", string(name)), zap.Error(err))
		return []types.Record{}
	}
	if !ok {
		return []types.Record{}
	}
	var records []types.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Debug("discarding corrupt table", zap.String("table", string(name)), zap.Error(err))
		return []types.Record{}
	}
	if records == nil {
		return []types.Record{}
	}
	return records
}

// SetTable overwrites name with records.
func (s *Store) SetTable(name types.TableName, records []types.Record) error {
	if records == nil {
		records = []types.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding table %s: %w", name, err)
	}
	if err := s.kv.Set(s.Key(name), data); err != nil {
		return fmt.Errorf("writing table %s: %w", name, err)
	}
	return nil
}

// RemoveTable deletes name entirely.
func (s *Store) RemoveTable(name types.TableName) error {
	if err := s.kv.Delete(s.Key(name)); err != nil {
		return fmt.Errorf("removing table %s: %w", name, err)
	}
	return nil
}

// Version returns the stored schema-version marker, or "".
func (s *Store) Version() string {
	data, ok, err := s.kv.Get(s.prefix + keyVersion)
	if err != nil || !ok {
		return ""
	}
	return string(data)
}

// SetVersion writes the schema-version marker.
func (s *Store) SetVersion(v string) error {
	if err := s.kv.Set(s.prefix+keyVersion, []byte(v)); err != nil {
		return fmt.Errorf("writing version marker: %w", err)
	}
	return nil
}

// Session returns the stored session, or nil when signed out or when the
// stored value cannot be decoded.
func (s *Store) Session() *types.Session {
	data, ok, err := s.kv.Get(s.prefix + keySession)
	if err != nil || !ok {
		return nil
	}
	var sess types.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.Debug("discarding corrupt session", zap.Error(err))
		return nil
	}
	return &sess
}

// SetSession stores sess as the single active session.
func (s *Store) SetSession(sess *types.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.kv.Set(s.prefix+keySession, data); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// ClearSession removes the stored session.
func (s *Store) ClearSession() error {
	if err := s.kv.Delete(s.prefix + keySession); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Normalize returns r as it will read back from storage: numbers become
// float64, nested structs become maps.
func Normalize(r types.Record) (types.Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var out types.Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	if out == nil {
		out = types.Record{}
	}
	return out, nil
}
