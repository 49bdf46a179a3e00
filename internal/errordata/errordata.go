package errordata

import (
  "context"
)

type key struct{}

var errorDataKey key

// ErrorData collects non-fatal degradations hit while serving a request
// (history load failed, best-effort persistence failed). The chat handler
// logs whatever accumulated here; none of it reaches the response body.
type ErrorData struct {
  Notes []string
}

func WithErrorData(ctx context.Context) context.Context {
  ed := &ErrorData{}
  return context.WithValue(ctx, errorDataKey, ed)
}

func GetErrorData(ctx context.Context) *ErrorData {
  val := ctx.Value(errorDataKey)
  ed, ok := val.(*ErrorData)
  if !ok {
    return nil
  }
  return ed
}

func (ed *ErrorData) AddNote(note string) {
  ed.Notes = append(ed.Notes, note)
}

func (ed *ErrorData) HasNotes() bool {
  return len(ed.Notes) > 0
}
