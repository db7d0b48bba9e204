package flowgraph

// Maybe is an optional value: either present with a value of T, or
// absent. Leaf transforms that conceptually produce "a value or
// nothing" carry a Maybe element through the graph rather than dropping
// the element, so that downstream joins stay position-aligned.
type Maybe[T any] struct {
	val     T
	present bool
}

// Some returns a present Maybe holding v.
func Some[T any](v T) Maybe[T] {
	return Maybe[T]{val: v, present: true}
}

// None returns an absent Maybe.
func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// Present reports whether the value is present.
func (m Maybe[T]) Present() bool { return m.present }

// Value returns the held value, or the zero value of T when absent.
func (m Maybe[T]) Value() T { return m.val }

// OrElse returns the held value when present, otherwise alt.
func (m Maybe[T]) OrElse(alt T) T {
	if m.present {
		return m.val
	}
	return alt
}

// Coalesce returns a when it is present, otherwise b. It is total over
// both cases: two absent inputs yield an absent result.
func Coalesce[T any](a, b Maybe[T]) Maybe[T] {
	if a.present {
		return a
	}
	return b
}
