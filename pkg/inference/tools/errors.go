package tools

import (
	"fmt"
	"strings"
)

// ErrorMarker is the in-band prefix that marks a tool result as a failure.
// Downstream consumers (the answer generator, the confirmation loop)
// recognize failed executions by this marker rather than by an error
// return, so expected failure modes never abort an exchange.
const ErrorMarker = "[Tool Error]"

// ErrorResult encodes an error as marker-prefixed tool result content.
func ErrorResult(err error) string {
	return fmt.Sprintf("%s %s", ErrorMarker, err.Error())
}

// ErrorResultf encodes a formatted message as marker-prefixed content.
func ErrorResultf(format string, args ...interface{}) string {
	return fmt.Sprintf("%s %s", ErrorMarker, fmt.Sprintf(format, args...))
}

// IsErrorResult reports whether tool result content carries the error marker.
func IsErrorResult(content string) bool {
	return strings.Contains(content, ErrorMarker)
}
