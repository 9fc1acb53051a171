// Package intent executes declared user intents.
//
// The bridge translates a validated intent request into either a
// caller-provided handler or the built-in default handler derived from
// the intent's declared handler kind. Execution always yields a
// uniform outcome shape; panics and handler errors become failed
// outcomes with an error toast, never a crash.
package intent
