// Package optional implements a value which may or may not be set.
package optional

// Optional holds a value of type T together with a flag telling whether the
// value has ever been set. The zero Optional is empty.
type Optional[T any] struct {
	value T
	set   bool
}

// Of returns an Optional which holds val.
func Of[T any](val T) Optional[T] {
	return Optional[T]{value: val, set: true}
}

// Set stores val and marks the Optional as having a value.
func (o *Optional[T]) Set(val T) {
	o.value = val
	o.set = true
}

// Get returns the stored value. It returns the zero value of T when nothing
// has been set.
func (o *Optional[T]) Get() T {
	return o.value
}

// HasValue reports whether Set has been called.
func (o *Optional[T]) HasValue() bool {
	return o.set
}

// Reset clears the Optional.
func (o *Optional[T]) Reset() {
	var zero T
	o.value = zero
	o.set = false
}
