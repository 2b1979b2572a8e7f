package market

import "time"

// Session is a named trading window ("killzone") in UTC.
type Session string

const (
	SessionAsian   Session = "Asian"
	SessionLondon  Session = "London"
	SessionNYAM    Session = "NY AM"
	SessionNYPM    Session = "NY PM"
	SessionOffHour Session = "Off-Hours"
)

// Sessions lists every session in display order.
func Sessions() []Session {
	return []Session{SessionAsian, SessionLondon, SessionNYAM, SessionNYPM, SessionOffHour}
}

// ClassifySession buckets a unix timestamp by its UTC hour.
func ClassifySession(ts int64) Session {
	return SessionForHour(time.Unix(ts, 0).UTC().Hour())
}

// SessionForHour maps an hour of day (0-23) to its session.
func SessionForHour(h int) Session {
	switch {
	case h >= 0 && h < 8:
		return SessionAsian
	case h >= 8 && h < 13:
		return SessionLondon
	case h >= 13 && h < 16:
		return SessionNYAM
	case h >= 16 && h < 21:
		return SessionNYPM
	default:
		return SessionOffHour
	}
}
