package core

// Person identifies who a log entry is about.
type Person struct {
	ID       string
	Username string
	Email    string
}

// Logger accepts a message followed by any of: error, map[string]interface{}, Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
