package httpserver

import "time"

// ShutdownTimeout bounds how long in-flight requests may run once a stop
// signal arrives.
var ShutdownTimeout = 10 * time.Second
