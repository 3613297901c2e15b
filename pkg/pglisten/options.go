package pglisten

import "time"

type Option func(l *Listener)

func ConnAttempts(attempts int) Option {
	return func(l *Listener) {
		l.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(l *Listener) {
		l.connTimeout = timeout
	}
}
