//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

// EventSink is one participant's live delivery channel. Implementations must
// serialize concurrent Deliver calls; a returned error means the underlying
// transport is dead and the sink must not be reused.
type EventSink interface {
	Deliver(payload any) error
}

// Connection is the transport surface the dispatch loop drives: the delivery
// side plus the sequential inbound read.
type Connection interface {
	EventSink
	// ReadEvent blocks until the next inbound event payload or transport
	// failure. Events from one connection are read strictly one at a time.
	ReadEvent() ([]byte, error)
}
