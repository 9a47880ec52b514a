// Package requestid carries the id that correlates an API call with the log
// lines it produces.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// MaxLen bounds caller-supplied ids so they stay cheap to log.
const MaxLen = 128

type ctxKey struct{}

func New() string {
	return uuid.NewString()
}

// Valid reports whether id can be reused as-is: non-empty, at most MaxLen
// bytes, printable ASCII without spaces.
func Valid(id string) bool {
	if id == "" || len(id) > MaxLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns "" if ctx carries no request id.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
