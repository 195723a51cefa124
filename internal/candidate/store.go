package candidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/interviewer/internal/kv"
)

const keyPrefix = "candidates/"

// Store maps candidates onto a key-value store. Every candidate lives under
// its own key and is stored as a field name to value mapping.
type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Persist upserts the candidate under its id. Repeating the call with the same
// data leaves exactly one identical record.
func (s *Store) Persist(ctx context.Context, c *Candidate) error {
	if c == nil {
		return errors.New("candidate is required")
	}
	if c.ID == "" {
		return errors.New("candidate id is required")
	}

	record, err := toRecord(c)
	if err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal candidate %s: %w", c.ID, err)
	}

	if err := s.kv.Set(ctx, key(c.ID), data); err != nil {
		return fmt.Errorf("persist candidate %s: %w", c.ID, err)
	}
	return nil
}

// Get returns the candidate stored for id. The second value is false when there is none.
func (s *Store) Get(ctx context.Context, id string) (*Candidate, bool, error) {
	data, ok, err := s.kv.Get(ctx, key(id))
	if err != nil {
		return nil, false, fmt.Errorf("get candidate %s: %w", id, err)
	}
	if !ok {
		return nil, false, nil
	}

	c, err := decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode candidate %s: %w", id, err)
	}
	return c, true, nil
}

// ListAll returns every stored candidate ordered by id.
func (s *Store) ListAll(ctx context.Context) ([]*Candidate, error) {
	values, err := s.kv.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	candidates := make([]*Candidate, 0, len(values))
	for i, data := range values {
		c, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode candidate #%d: %w", i, err)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func key(id string) string {
	return keyPrefix + id
}

func toRecord(c *Candidate) (map[string]any, error) {
	record := make(map[string]any)
	if err := mapstructure.Decode(c, &record); err != nil {
		return nil, fmt.Errorf("map candidate %s: %w", c.ID, err)
	}
	return record, nil
}

func decode(data []byte) (*Candidate, error) {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}

	var c Candidate
	if err := mapstructure.Decode(record, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
