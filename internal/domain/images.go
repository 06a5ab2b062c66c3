package domain

import "fmt"

// DefaultImageSlots is the slot capacity used when none is configured.
const DefaultImageSlots = 10

// ImageRef points at an image blob held in the local store. Handle doubles as
// the preview handle served to the owning session.
type ImageRef struct {
	Handle      string `json:"handle"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// ImageSlots is a fixed-capacity ordered slot array. Slots keep their
// position when cleared; nothing ever shifts.
type ImageSlots []*ImageRef

// NewImageSlots returns capacity empty slots.
func NewImageSlots(capacity int) ImageSlots {
	if capacity <= 0 {
		capacity = DefaultImageSlots
	}
	return make(ImageSlots, capacity)
}

func (s ImageSlots) check(i int) error {
	if i < 0 || i >= len(s) {
		return fmt.Errorf("slot %d of %d: %w", i, len(s), ErrSlotOutOfRange)
	}
	return nil
}

// Assign overwrites slot i and returns the ref it displaced, if any, so the
// caller can release its handle.
func (s ImageSlots) Assign(i int, ref *ImageRef) (*ImageRef, error) {
	if err := s.check(i); err != nil {
		return nil, err
	}
	old := s[i]
	s[i] = ref
	return old, nil
}

// Clear empties slot i and returns what was there.
func (s ImageSlots) Clear(i int) (*ImageRef, error) {
	return s.Assign(i, nil)
}

// ReleaseAll empties every slot and returns the populated refs in slot order.
func (s ImageSlots) ReleaseAll() []*ImageRef {
	out := s.Populated()
	for i := range s {
		s[i] = nil
	}
	return out
}

// Populated returns the non-empty slots in ascending slot order.
func (s ImageSlots) Populated() []*ImageRef {
	var out []*ImageRef
	for _, r := range s {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Count is the number of populated slots.
func (s ImageSlots) Count() int {
	n := 0
	for _, r := range s {
		if r != nil {
			n++
		}
	}
	return n
}
