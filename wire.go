package netlogolink

// Serializer defines the interface for message encoding and decoding.
// The default implementation is MsgpackSerializer, which matches what the
// in-runtime link program reads and writes.
type Serializer interface {
	// Marshal encodes a Go value to bytes.
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal decodes bytes into a Go value.
	Unmarshal(data []byte, v interface{}) error
}

// Transport defines the interface for sending and receiving whole frames.
// The default implementation is FrameTransport: length-prefixed binary
// frames over the runtime's standard streams.
type Transport interface {
	// Send transmits one frame to the remote endpoint.
	Send(data []byte) error

	// Receive reads one complete frame from the remote endpoint.
	Receive() ([]byte, error)

	// Close releases transport resources and closes underlying streams.
	Close() error
}

// Link protocol operations.
const (
	OpOpen          = "open"
	OpLoadModel     = "loadModel"
	OpCommand       = "command"
	OpReport        = "report"
	OpKillWorkspace = "killWorkspace"
	OpExit          = "exit"

	// opReady is sent unsolicited by the link program once the engine
	// classes are loaded.
	opReady = "ready"
)

// request is one call from Go into the link program.
type request struct {
	ID   string                 `msgpack:"id"`
	Op   string                 `msgpack:"op"`
	Link int64                  `msgpack:"link,omitempty"`
	Args map[string]interface{} `msgpack:"args,omitempty"`
}

// response answers the request with the same ID. Exactly one of Result and
// Exception is set when the call produced a value or failed; both are nil
// for operations without a result.
type response struct {
	ID        string           `msgpack:"id"`
	Op        string           `msgpack:"op,omitempty"`
	OK        bool             `msgpack:"ok"`
	Link      int64            `msgpack:"link,omitempty"`
	Version   string           `msgpack:"version,omitempty"`
	Result    *wireEnvelope    `msgpack:"result,omitempty"`
	Exception *EngineException `msgpack:"exception,omitempty"`
}
