// Package logger wraps zap with a global sugared logger that travels in
// context.Context.
//
// Commands name their logger once (WithName) and scoped values are attached
// with WithKV; everything below extracts the logger back with FromContext.
package logger
