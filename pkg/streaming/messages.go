// Package streaming defines the messages pushed to a live map client.
package streaming

import (
	"encoding/json"

	"github.com/pathkeeper/tracker/pkg/core"
)

// Message type constants of the map stream protocol.
const (
	TypeHello    = "hello"
	TypeRecenter = "recenter"
	TypeFrame    = "frame"
	TypeElapsed  = "elapsed"
	TypeAck      = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the client's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// HelloPayload opens a stream.
type HelloPayload struct {
	Client string `json:"client"`
}

// RecenterPayload moves the map view.
type RecenterPayload struct {
	Center core.GeoSample `json:"center"`
	TileX  int            `json:"tileX"`
	TileY  int            `json:"tileY"`
	Zoom   int            `json:"zoom"`
}

// FramePayload replaces everything drawn on the map.
type FramePayload struct {
	Center     *core.GeoSample   `json:"center,omitempty"`
	Path       []core.GeoSample  `json:"path"`
	Places     []core.NamedPlace `json:"places"`
	PathLength float64           `json:"pathLengthM"`
}

// ElapsedPayload updates the timer label.
type ElapsedPayload struct {
	Millis int64  `json:"millis"`
	Label  string `json:"label"`
}
