package log

import (
	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/dimred/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

func init() {
	zerolog.ErrorStackFieldName = StacktraceAttrKey
	zerolog.ErrorStackMarshaler = marshalStack
}

// marshalStack formats the cockroachdb/errors stack trace carried by err.
// zerolog omits the field when nil is returned.
func marshalStack(err error) interface{} {
	if trace := errors.StackTrace(err); trace != "" {
		return trace
	}
	return nil
}
