package scan

// Status is the lifecycle state of a scan session.
type Status int

const (
	StatusIdle Status = iota
	StatusRequestingPermission
	StatusScanning
	StatusSuccess
	StatusError
	StatusUnsupported
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRequestingPermission:
		return "requesting-permission"
	case StatusScanning:
		return "scanning"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends a session.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusUnsupported
}

// Active reports whether a session is waiting on the device.
func (s Status) Active() bool {
	return s == StatusRequestingPermission || s == StatusScanning
}

// Permission is the tri-state outcome of a device access request.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Session is a point-in-time copy of one scan attempt.
type Session struct {
	ID         uint64
	Status     Status
	Result     string // decoded identifier, set once per successful session
	Permission Permission
	Err        error // terminal failure, if any
}

// Denied reports whether the session ended because the device was unavailable.
func (s Session) Denied() bool {
	return s.Permission == PermissionDenied
}
