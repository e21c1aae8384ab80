package chat

// ErrorKind classifies protocol failures so the transport layer can map
// them without string matching
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindInternal
)

// ProtocolError is a failure reported back on the operation's ack. The
// session stays open and usable after one of these.
type ProtocolError struct {
	Kind    ErrorKind
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

func validationErr(msg string) *ProtocolError {
	return &ProtocolError{Kind: KindValidation, Message: msg}
}

func notFoundErr(msg string) *ProtocolError {
	return &ProtocolError{Kind: KindNotFound, Message: msg}
}

// internalErr hides storage failure detail from clients
func internalErr() *ProtocolError {
	return &ProtocolError{Kind: KindInternal, Message: "Something went wrong"}
}
