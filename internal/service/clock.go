package service

import "time"

// Clock reports the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func NewClock() Clock {
	return func() time.Time { return time.Now().UTC() }
}
