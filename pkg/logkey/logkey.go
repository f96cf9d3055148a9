package logkey

// Attribute keys shared by every slog call in the service.
const (
	TraceID   = "TRACE ID"
	ERROR     = "ERROR"
	UserID    = "UserID"
	OrderID   = "OrderID"
	SessionID = "SessionID"
	ProductID = "ProductID"
	EventType = "EventType"
)
