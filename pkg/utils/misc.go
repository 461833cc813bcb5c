package utils

import (
	"bytes"
	"fmt"
	"runtime"
)

func Ref[T any](value T) *T {
	return &value
}

func Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func RecoverValueString(value interface{}) (msg string) {
	switch v := value.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = fmt.Sprintf("%#v", v)
	}

	return
}

func StackTrace(skip, depth int, includeLocation bool) string {
	pc := make([]uintptr, depth)

	// Always skip runtime.Callers and utils.Stacktrace
	nbFrames := runtime.Callers(skip+2, pc)
	pc = pc[:nbFrames]

	var buf bytes.Buffer

	frames := runtime.CallersFrames(pc)
	for {
		frame, more := frames.Next()

		fmt.Fprintf(&buf, "%s\n", frame.Function)
		if includeLocation {
			fmt.Fprintf(&buf, "  %s:%d\n", frame.File, frame.Line)
		}

		if !more {
			break
		}
	}

	return buf.String()
}
