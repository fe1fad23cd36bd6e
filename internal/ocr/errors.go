package ocr

// ErrorKind classifies extraction failures at the client boundary so callers
// never have to probe response shapes.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindProcessing ErrorKind = "processing"
	ErrorKindTransport  ErrorKind = "transport"
)

// FallbackMessage is shown when the service gives no usable message.
const FallbackMessage = "Failed to process cheque images. Please try again."

type ExtractionError struct {
	Kind    ErrorKind
	Message string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

// UserMessage returns the most specific message available for display,
// falling back to a fixed string when the payload had none.
func (e *ExtractionError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return FallbackMessage
}
