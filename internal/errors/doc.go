// Package errors provides coded, structured errors for the reconciler and
// its tooling.
//
// Every error carries a code from a fixed registry, a category, a short
// message and a longer detail. Errors raised by the runtime wrap a sentinel
// from package fiber so callers can match them with errors.Is.
//
// # Error Codes
//
//   - R1xx: runtime (hook order, invalid primitive calls, effects, storms)
//   - C2xx: configuration files
//   - S3xx: scenario files run by fiberctl
//
// # Usage
//
//	err := errors.New("S302").
//	    WithLocation("scenarios/todo.yaml", 12, 5).
//	    WithSuggestion(`Use one of "increment", "set_items", "toggle_counter".`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR S302: Invalid scenario step
//	//
//	//   scenarios/todo.yaml:12:5
//	//
//	//     11 │ steps:
//	//   → 12 │   - do: incremnt
//	//        │     ^
//	//     13 │     times: 3
//	//
//	//   Hint: Use one of "increment", "set_items", "toggle_counter".
package errors
