package infra

// EventType represents the type of event in the system
type EventType int

const (
	BatchPredicted EventType = iota
	BatchValidated
	BatchRejected
	RunFinished
)

// String returns the string representation of the EventType
func (et EventType) String() string {
	switch et {
	case BatchPredicted:
		return "BatchPredicted"
	case BatchValidated:
		return "BatchValidated"
	case BatchRejected:
		return "BatchRejected"
	case RunFinished:
		return "RunFinished"
	default:
		return "Unknown"
	}
}

// Handlers run synchronously on the publisher's goroutine, in subscription
// order.
type Event interface{ EventType() EventType }
type Handler func(Event)
type Bus struct{ subs map[EventType][]Handler }

func NewBus() *Bus { return &Bus{subs: map[EventType][]Handler{}} }

// Publish is a no-op on a nil bus.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	for _, h := range b.subs[e.EventType()] {
		h(e)
	}
}
func (b *Bus) Subscribe(evt EventType, h Handler) { b.subs[evt] = append(b.subs[evt], h) }
