package hours

import (
	"fmt"
	"strings"
)

// StatusKind classifies a display status.
type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusOpen
	StatusClosed
)

// BusinessStatus is the display-ready classification of an activity against
// a place's opening hours. It is computed on demand and never persisted.
type BusinessStatus struct {
	Kind        StatusKind
	DisplayText string
}

func (k StatusKind) String() string {
	switch k {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type statusOptions struct {
	preferBackend bool
}

// StatusOption customizes Status evaluation.
type StatusOption func(*statusOptions)

// PreferBackendFlag makes an upstream-computed open/closed flag take
// precedence over a locally parsed hours string. The upstream flag may have
// been computed with richer information (date, holidays) than the raw string
// alone, so some callers want it to win.
func PreferBackendFlag() StatusOption {
	return func(o *statusOptions) { o.preferBackend = true }
}

// Status derives a display status for an activity window. By default a
// non-empty raw hours string wins over the backendOpen flag:
//
//  1. raw hours present: evaluate containment and render the raw string.
//  2. backendOpen == false: closed, with closedReason when supplied.
//  3. backendOpen == true: open all day.
//  4. otherwise: hours unknown.
func Status(start, end, raw string, backendOpen *bool, closedReason string, opts ...StatusOption) BusinessStatus {
	var o statusOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.preferBackend && backendOpen != nil {
		return flagStatus(*backendOpen, closedReason)
	}

	if strings.TrimSpace(raw) != "" {
		switch Parse(raw).Covers(start, end) {
		case VerdictOpen:
			return BusinessStatus{Kind: StatusOpen, DisplayText: fmt.Sprintf("Open: %s", raw)}
		case VerdictClosed:
			return BusinessStatus{Kind: StatusClosed, DisplayText: fmt.Sprintf("Closed: %s", raw)}
		default:
			return BusinessStatus{Kind: StatusUnknown, DisplayText: fmt.Sprintf("Hours: %s", raw)}
		}
	}

	if backendOpen != nil {
		return flagStatus(*backendOpen, closedReason)
	}

	return BusinessStatus{Kind: StatusUnknown, DisplayText: "Hours unknown"}
}

func flagStatus(open bool, closedReason string) BusinessStatus {
	if open {
		return BusinessStatus{Kind: StatusOpen, DisplayText: "Open all day"}
	}
	if closedReason != "" {
		return BusinessStatus{Kind: StatusClosed, DisplayText: fmt.Sprintf("Closed: %s", closedReason)}
	}
	return BusinessStatus{Kind: StatusClosed, DisplayText: "Closed, check locally before visiting"}
}
