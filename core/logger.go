package core

// Logger is any leveled logger the app can report through.
// Args may carry extra context (errors, maps, domain objects); each
// implementation decides how to render them.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}
