package streams

//***************************************************************************
// Level
//***************************************************************************

// Level defines different level warnings for giving
// log events.
type Level uint8

// constants of log levels this package respect.
// They are capitalize to ensure no naming conflict.
const (
	INFO Level = 1 << iota
	DEBUG
	WARN
	ERROR
	PANIC
)

// String implements the Stringer interface.
func (l Level) String() string {
	switch l {
	case INFO:
		return "INFO"
	case ERROR:
		return "ERROR"
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case PANIC:
		return "PANIC"
	}
	return "UNKNOWN"
}

//***************************************************************************
// Logs
//***************************************************************************

// LogMessage defines an interface which exposes a method for retrieving
// log details for giving log item.
type LogMessage interface {
	Message() string
}

// Message implements the LogMessage interface over a plain string.
type Message string

// Message returns the underline string.
func (m Message) Message() string {
	return string(m)
}

// Logs defines a acceptable logging interface which this package will
// respect and use to deliver logs for protocol violations and dropped
// signals, this frees the package from specifying or locking a giving
// implementation and contaminating import paths. Implement this and
// pass in to elements that provide for it.
type Logs interface {
	Emit(Level, LogMessage)
}

//*****************************************************************
// DrainLog
//*****************************************************************

// DrainLog implements the streams.Logs interface.
type DrainLog struct{}

// Emit does nothing with provided arguments, it implements
// streams.Logs Emit method.
func (DrainLog) Emit(_ Level, _ LogMessage) {}
