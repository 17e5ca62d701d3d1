/*
Package result implements the outcome of a computation that may fail,
inspired by Elm's Result type.

Batches of document operations report one Result per operation; clients
match on them or use the accessors.
*/
package result

// Result is either Ok(value) or Err(error).
type Result[T any] interface {
	Match() Matcher[T]
	Value() (T, error)
	IsOk() bool
}

type result[T any] struct {
	value T
	err   error
}

func Ok[T any](x T) Result[T] {
	return result[T]{value: x}
}

// Err creates a failed result. err must not be nil.
func Err[T any](err error) Result[T] {
	if err == nil {
		panic("result: Err called with nil error")
	}
	return result[T]{err: err}
}

// Of converts a Go-style (value, error) pair.
func Of[T any](x T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(x)
}

func (r result[T]) Match() Matcher[T] {
	return matcher[T]{r: r}
}

func (r result[T]) Value() (T, error) {
	return r.value, r.err
}

func (r result[T]) IsOk() bool {
	return r.err == nil
}

// WithDefault returns the value of an Ok result, def otherwise.
func WithDefault[T any](def T, r Result[T]) T {
	if v, err := r.Value(); err == nil {
		return v
	}
	return def
}

// Map transforms the value of an Ok result.
func Map[T, S any](f func(T) S, r Result[T]) Result[S] {
	v, err := r.Value()
	if err != nil {
		return Err[S](err)
	}
	return Ok(f(v))
}

// FirstErr returns the first error of a sequence of results, or nil.
func FirstErr[T any](rs []Result[T]) error {
	for _, r := range rs {
		if _, err := r.Value(); err != nil {
			return err
		}
	}
	return nil
}

// --- Matching --------------------------------------------------------------

type Matcher[T any] interface {
	Ok(*T) Matcher[T]
	Err(*error) Matcher[T]
}

type matcher[T any] struct {
	r result[T]
}

func (rm matcher[T]) Ok(v *T) Matcher[T] {
	if rm.r.err == nil {
		*v = rm.r.value
		return rm
	}
	return nil
}

func (rm matcher[T]) Err(err *error) Matcher[T] {
	if rm.r.err != nil {
		*err = rm.r.err
		return rm
	}
	return nil
}
