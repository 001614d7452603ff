package result

import (
	"encoding/json"

	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
)

// Result is the discriminated outcome of a service operation:
// {success: true, data} or {success: false, error: {code, message, details}}.
type Result[T any] struct {
	Success bool
	Data    T
	Error   *apperr.Error
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{Error: apperr.Wrap(err)}
}

// Of builds a Result from a (value, error) pair.
func Of[T any](data T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(data)
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    T    `json:"data"`
		}{true, r.Data})
	}
	e := r.Error
	if e == nil {
		e = apperr.New(apperr.CodeUnknown, "unknown error")
	}
	return json.Marshal(struct {
		Success bool          `json:"success"`
		Error   *apperr.Error `json:"error"`
	}{false, e})
}

func (r *Result[T]) UnmarshalJSON(b []byte) error {
	var aux struct {
		Success bool          `json:"success"`
		Data    T             `json:"data"`
		Error   *apperr.Error `json:"error"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.Success, r.Data, r.Error = aux.Success, aux.Data, aux.Error
	return nil
}
