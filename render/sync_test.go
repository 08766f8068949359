package render

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestOwners(t *testing.T) {
	c := qt.New(t)

	o := newOwners(3)
	c.Assert(o, qt.DeepEquals, owners{noOwner, noOwner, noOwner})

	_, busy := o.claim(0, 0)
	c.Assert(busy, qt.IsFalse)

	_, busy = o.claim(1, 1)
	c.Assert(busy, qt.IsFalse)

	// The same slot coming back to its own image waited on its fence already.
	_, busy = o.claim(0, 0)
	c.Assert(busy, qt.IsFalse)

	prev, busy := o.claim(1, 2)
	c.Assert(busy, qt.IsTrue)
	c.Assert(prev, qt.Equals, 1)
	c.Assert(o, qt.DeepEquals, owners{0, 2, noOwner})
}
