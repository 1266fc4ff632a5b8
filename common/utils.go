package common

import "fmt"

// Assert checks an invariant and panics if it does not hold.
//
// Assertions are reserved for conditions that are impossible unless internal
// logic is broken: continuing past a violated invariant risks serving corrupt
// data, so the engine crashes instead. User input and recoverable failures
// get error returns, never assertions.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
