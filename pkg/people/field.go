package people

// Field is a tri-state optional input: unset leaves the stored value alone,
// Clear removes it, and Set replaces it.
type Field[T any] struct {
	set   bool
	value *T
}

// Set returns a Field that replaces the stored value with v.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: &v}
}

// Clear returns a Field that removes the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{set: true}
}

// IsSet reports whether the field was supplied at all.
func (f Field[T]) IsSet() bool { return f.set }

// Get returns the supplied value; ok is false when unset or cleared.
func (f Field[T]) Get() (v T, ok bool) {
	if !f.set || f.value == nil {
		return v, false
	}
	return *f.value, true
}

// apply writes the field into dst following override-wins semantics.
func (f Field[T]) apply(dst *T) {
	if !f.set {
		return
	}
	if f.value == nil {
		var zero T
		*dst = zero
		return
	}
	*dst = *f.value
}

// applyPtr is apply for nullable pointer destinations.
func (f Field[T]) applyPtr(dst **T) {
	if !f.set {
		return
	}
	if f.value == nil {
		*dst = nil
		return
	}
	v := *f.value
	*dst = &v
}
