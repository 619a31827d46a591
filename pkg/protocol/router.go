package protocol

// HandlerResult is what a Handler returns: an error (no reply is sent; the
// peer's T3 governs) or a reply body to auto-send when the inbound message
// had its wait bit set.
type HandlerResult struct {
	Err  error
	Body []byte
}

// Handler processes one inbound primary message.
type Handler func(msg Message) HandlerResult

type sfKey struct {
	stream, function byte
}

// Router dispatches inbound primaries to a per-(stream,function) handler,
// falling back to a default handler when no specific one matches.
type Router struct {
	handlers map[sfKey]Handler
	def      Handler
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{handlers: make(map[sfKey]Handler)}
}

// Handle registers the handler for (stream, function).
func (r *Router) Handle(stream, function byte, h Handler) {
	r.handlers[sfKey{stream, function}] = h
}

// SetDefault registers the fallback handler invoked when no specific
// (stream, function) handler matches.
func (r *Router) SetDefault(h Handler) {
	r.def = h
}

// Find returns the handler for (stream, function), or the default handler
// if none is registered, or (nil, false) if neither exists.
func (r *Router) Find(stream, function byte) (Handler, bool) {
	if h, ok := r.handlers[sfKey{stream, function}]; ok {
		return h, true
	}
	if r.def != nil {
		return r.def, true
	}
	return nil, false
}
