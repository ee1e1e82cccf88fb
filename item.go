package daia

// State is the tri-state result of Item.IsAvailable.
type State int

const (
	// StateUnknown is returned for Unknown and not applicable services.
	StateUnknown State = iota
	// StateAvailable is returned for *Available.
	StateAvailable
	// StateUnavailable is returned for *Unavailable.
	StateUnavailable
)

// Item is a single copy of a document.
type Item struct {
	ID         string
	Href       string
	Fragment   string
	Label      string
	Department *Element
	Storage    *Element
	Messages   []Message
	Services   ServiceMap
}

// AddMessage attaches a message to the item.
func (it *Item) AddMessage(m Message) {
	it.Messages = append(it.Messages, m)
}

// Availability returns the availability for service s, nil if the service
// does not apply.
func (it *Item) Availability(s Service) Availability {
	return it.Services[s]
}

// SetAvailability replaces the availability for service s.
func (it *Item) SetAvailability(s Service, a Availability) {
	it.Services[s] = a
}

// HasAvailabilities reports whether any service has been assigned, including
// unknown ones.
func (it *Item) HasAvailabilities() bool {
	return it.Services.Any()
}

// IsAvailable returns the state of service s.
func (it *Item) IsAvailable(s Service) State {
	switch it.Services[s].(type) {
	case *Available:
		return StateAvailable
	case *Unavailable:
		return StateUnavailable
	}
	return StateUnknown
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	c := *it
	c.Messages = append([]Message(nil), it.Messages...)
	if it.Storage != nil {
		s := *it.Storage
		c.Storage = &s
	}
	if it.Department != nil {
		d := *it.Department
		c.Department = &d
	}
	c.Services = it.Services.Clone()
	return &c
}
