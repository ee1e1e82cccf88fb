package daia

import (
	"fmt"
	"strings"
)

// ExpectedUnknown is the expected value for an unavailable service whose
// return date cannot be determined.
const ExpectedUnknown = "unknown"

// Service is one of the fixed availability dimensions of an item.
type Service int

const (
	Presentation Service = iota
	Loan
	Interloan
	OpenAccess
	numServices
)

// Services lists all services in output order.
var Services = [numServices]Service{Presentation, Loan, Interloan, OpenAccess}

var serviceNames = [numServices]string{
	Presentation: "presentation",
	Loan:         "loan",
	Interloan:    "interloan",
	OpenAccess:   "openaccess",
}

func (s Service) String() string {
	if s < 0 || s >= numServices {
		return fmt.Sprintf("service(%d)", int(s))
	}
	return serviceNames[s]
}

// ParseService returns the service for a name like "loan".
func ParseService(name string) (Service, error) {
	for i, n := range serviceNames {
		if strings.EqualFold(n, name) {
			return Service(i), nil
		}
	}
	return 0, fmt.Errorf("unknown service: %q", name)
}

// Availability is the state of a single service for an item. It is one of
// *Available, *Unavailable or Unknown.
type Availability interface {
	availability()
}

// Available service, optionally with a delay.
type Available struct {
	Href        string
	Messages    []Message
	Limitations []Element
	Delay       string
}

// Unavailable service, optionally with an expected date and queue length.
type Unavailable struct {
	Href        string
	Messages    []Message
	Limitations []Element
	// Expected is a date (YYYY-MM-DD) or ExpectedUnknown.
	Expected string
	// Queue is the number of reservations, if known.
	Queue *int
}

// Unknown marks an availability indicator that is present but indeterminate.
type Unknown struct{}

func (*Available) availability()   {}
func (*Unavailable) availability() {}
func (Unknown) availability()      {}

// ServiceMap maps each service to its availability. A nil entry means the
// service does not apply to the item.
type ServiceMap [numServices]Availability

// Resolved reports whether service s is either available or unavailable.
func (m *ServiceMap) Resolved(s Service) bool {
	switch m[s].(type) {
	case *Available, *Unavailable:
		return true
	}
	return false
}

// MarkAvailable sets s to available. An existing available value is kept as
// is, so limitations written earlier survive.
func (m *ServiceMap) MarkAvailable(s Service) *Available {
	if a, ok := m[s].(*Available); ok {
		return a
	}
	a := &Available{}
	m[s] = a
	return a
}

// MarkUnavailable sets s to unavailable, keeping an existing unavailable value.
func (m *ServiceMap) MarkUnavailable(s Service) *Unavailable {
	if u, ok := m[s].(*Unavailable); ok {
		return u
	}
	u := &Unavailable{}
	m[s] = u
	return u
}

// SetHref attaches a link to s, if s is resolved.
func (m *ServiceMap) SetHref(s Service, href string) {
	switch v := m[s].(type) {
	case *Available:
		v.Href = href
	case *Unavailable:
		v.Href = href
	}
}

// AddLimitation appends a limitation to s, if s is resolved.
func (m *ServiceMap) AddLimitation(s Service, e Element) {
	switch v := m[s].(type) {
	case *Available:
		v.Limitations = append(v.Limitations, e)
	case *Unavailable:
		v.Limitations = append(v.Limitations, e)
	}
}

// Any reports whether at least one service has been assigned.
func (m *ServiceMap) Any() bool {
	for _, a := range m {
		if a != nil {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (m ServiceMap) Clone() ServiceMap {
	var c ServiceMap
	for i, a := range m {
		c[i] = cloneAvailability(a)
	}
	return c
}

func cloneAvailability(a Availability) Availability {
	switch v := a.(type) {
	case *Available:
		w := *v
		w.Messages = append([]Message(nil), v.Messages...)
		w.Limitations = append([]Element(nil), v.Limitations...)
		return &w
	case *Unavailable:
		w := *v
		w.Messages = append([]Message(nil), v.Messages...)
		w.Limitations = append([]Element(nil), v.Limitations...)
		if v.Queue != nil {
			q := *v.Queue
			w.Queue = &q
		}
		return &w
	}
	return a
}
