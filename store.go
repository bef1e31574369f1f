package marionette

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/quasilyte/gdata/v2"
)

const (
	trackObject   = "tracks"
	trackIndexKey = "index"
)

// ClassStore persists track classes as JSON through gdata. With a nil
// manager it degrades to an in-memory store.
type ClassStore struct {
	manager *gdata.Manager
	memory  map[string][]byte
}

// NewClassStore creates a store over manager, which may be nil.
func NewClassStore(manager *gdata.Manager) *ClassStore {
	return &ClassStore{manager: manager, memory: make(map[string][]byte)}
}

// OpenClassStore opens the gdata storage of appName.
func OpenClassStore(appName string) (*ClassStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open class store: %w", err)
	}
	return NewClassStore(m), nil
}

func trackKey(id string) string { return "track_" + id }

// SaveTrack writes c under its id.
func (s *ClassStore) SaveTrack(c *AnimationTrackClass) error {
	data, err := c.ToJSON()
	if err != nil {
		return err
	}
	if s.manager == nil {
		s.memory[c.ID] = data
		return nil
	}
	if err := s.manager.SaveObjectProp(trackObject, trackKey(c.ID), data); err != nil {
		return fmt.Errorf("save track %s: %w", c.ID, err)
	}
	ids, err := s.ListTracks()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == c.ID {
			return nil
		}
	}
	return s.writeIndex(append(ids, c.ID))
}

// LoadTrack reads the track with the given id.
func (s *ClassStore) LoadTrack(id string) (*AnimationTrackClass, error) {
	var data []byte
	if s.manager == nil {
		d, ok := s.memory[id]
		if !ok {
			return nil, fmt.Errorf("load track %s: not found", id)
		}
		data = d
	} else {
		if !s.manager.ObjectPropExists(trackObject, trackKey(id)) {
			return nil, fmt.Errorf("load track %s: not found", id)
		}
		d, err := s.manager.LoadObjectProp(trackObject, trackKey(id))
		if err != nil {
			return nil, fmt.Errorf("load track %s: %w", id, err)
		}
		data = d
	}
	c, ok := TrackClassFromJSON(data)
	if !ok {
		return nil, fmt.Errorf("load track %s: malformed track data", id)
	}
	return c, nil
}

// DeleteTrack removes the track with the given id. Deleting a missing
// track is not an error.
func (s *ClassStore) DeleteTrack(id string) error {
	if s.manager == nil {
		delete(s.memory, id)
		return nil
	}
	if s.manager.ObjectPropExists(trackObject, trackKey(id)) {
		if err := s.manager.DeleteObjectProp(trackObject, trackKey(id)); err != nil {
			return fmt.Errorf("delete track %s: %w", id, err)
		}
	}
	ids, err := s.ListTracks()
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, x := range ids {
		if x != id {
			kept = append(kept, x)
		}
	}
	return s.writeIndex(kept)
}

// ListTracks returns the stored track ids in sorted order.
func (s *ClassStore) ListTracks() ([]string, error) {
	var ids []string
	if s.manager == nil {
		for id := range s.memory {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return ids, nil
	}
	if !s.manager.ObjectPropExists(trackObject, trackIndexKey) {
		return nil, nil
	}
	data, err := s.manager.LoadObjectProp(trackObject, trackIndexKey)
	if err != nil {
		return nil, fmt.Errorf("read track index: %w", err)
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse track index: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *ClassStore) writeIndex(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode track index: %w", err)
	}
	if err := s.manager.SaveObjectProp(trackObject, trackIndexKey, data); err != nil {
		return fmt.Errorf("write track index: %w", err)
	}
	return nil
}
