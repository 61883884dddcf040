package api

// Kind classifies a failed API call so the caller can pick the right notice.
type Kind int

const (
	// KindValidation is raised before any network traffic when a required
	// field is missing or empty.
	KindValidation Kind = iota
	// KindAuth means the server rejected the supplied credentials.
	KindAuth
	// KindServer means the server answered with a non-success response,
	// usually carrying a human-readable message.
	KindServer
	// KindNetwork means the transport failed and no response was received.
	KindNetwork
	// KindParse means a response body could not be decoded.
	KindParse
)

// Error is the failure shape of every client call. Message is safe to show to
// the user as-is.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func validationErr(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func authErr(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func serverErr(message string) *Error {
	return &Error{Kind: KindServer, Message: message}
}

func networkErr(cause error) *Error {
	return &Error{Kind: KindNetwork, Message: "network error, check that the server is running", cause: cause}
}

func parseErr(cause error) *Error {
	return &Error{Kind: KindParse, Message: "the server returned a malformed response", cause: cause}
}
