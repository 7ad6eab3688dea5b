package internal

import (
	"fmt"
	"time"

	"github.com/gokit/streams"
)

// TLog implements the streams.Logs interface, printing
// out basic type and value contents with log.
type TLog struct{}

// Emit prints type implement log event and type data, it implements
// streams.Logs Emit method.
func (TLog) Emit(l streams.Level, e streams.LogMessage) {
	fmt.Printf("[%s : %s : %T] %s %#v\n", time.Now().Format(time.RFC3339), l, e, e.Message(), e)
}
