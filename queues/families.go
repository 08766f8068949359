package queues

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"vkviewer/optional"
)

// ErrIncomplete is returned by Find when a device lacks a graphics or a
// present capable queue family.
var ErrIncomplete = errors.New("required queue families not found")

// FamilyIndices holds the indexes of Vulkan queue families needed by the programs.
type FamilyIndices struct {

	// Graphics is the index of the graphics queue family.
	Graphics optional.Optional[uint32]

	// Present is the index of the queue family used for presenting to the drawing
	// surface.
	Present optional.Optional[uint32]
}

// IsComplete returns true if all families have been set.
func (f *FamilyIndices) IsComplete() bool {
	return f.Graphics.HasValue() && f.Present.HasValue()
}

// Shared reports whether graphics and presentation happen on the same family.
func (f *FamilyIndices) Shared() bool {
	return f.Graphics.Get() == f.Present.Get()
}

// Unique returns the distinct family indices, graphics first. One queue is
// created per entry.
func (f *FamilyIndices) Unique() []uint32 {
	if f.Shared() {
		return []uint32{f.Graphics.Get()}
	}
	return []uint32{f.Graphics.Get(), f.Present.Get()}
}

// Family is the part of a queue family's properties the selection looks at.
type Family struct {
	Graphics   bool
	QueueCount uint32
}

// PresentSupport tells whether the queue family at index can present to the
// window surface.
type PresentSupport func(index uint32) (bool, error)

// Find picks the first graphics capable family and the first family which can
// present. The two may be the same. Families which fail the present query are
// logged and treated as unable to present.
func Find(families []Family, canPresent PresentSupport) (FamilyIndices, error) {
	var indices FamilyIndices

	for i, family := range families {
		if family.QueueCount == 0 {
			continue
		}
		index := uint32(i)

		if family.Graphics && !indices.Graphics.HasValue() {
			indices.Graphics.Set(index)
		}

		if !indices.Present.HasValue() {
			ok, err := canPresent(index)
			if err != nil {
				log.WithField("family", index).Warnf("querying surface support: %s", err)
			} else if ok {
				indices.Present.Set(index)
			}
		}

		if indices.IsComplete() {
			break
		}
	}

	if !indices.IsComplete() {
		return indices, fmt.Errorf(
			"graphics found: %t, present found: %t: %w",
			indices.Graphics.HasValue(),
			indices.Present.HasValue(),
			ErrIncomplete,
		)
	}

	return indices, nil
}
