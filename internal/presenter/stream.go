package presenter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/internal/session"
	"github.com/pathkeeper/tracker/pkg/core"
	"github.com/pathkeeper/tracker/pkg/streaming"
)

// StreamConfig holds the map client endpoint.
type StreamConfig struct {
	URL    string
	Secret string
}

// Stream pushes map updates to a live client over WebSocket.
type Stream struct {
	conn       *connection
	cfg        StreamConfig
	ackTimeout time.Duration
}

func NewStream(cfg StreamConfig, logger *slog.Logger) *Stream {
	return &Stream{
		conn:       newConnection(logger),
		cfg:        cfg,
		ackTimeout: ackTimeout,
	}
}

// Init connects and waits for the client to acknowledge the hello message.
// On failure the connection is closed and the stream must not be used.
func (s *Stream) Init() error {
	if err := s.conn.dial(s.cfg.URL, s.cfg.Secret); err != nil {
		return err
	}
	data, err := marshalEnvelope(streaming.TypeHello, streaming.HelloPayload{Client: "tracker"})
	if err != nil {
		_ = s.conn.close()
		return err
	}

	s.conn.mu.Lock()
	s.conn.handshake = data
	s.conn.mu.Unlock()

	if err := s.conn.sendAndWait(data, streaming.TypeHello, s.ackTimeout); err != nil {
		_ = s.conn.close()
		return err
	}
	return nil
}

func (s *Stream) Close() error {
	return s.conn.close()
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (s *Stream) sendEnvelope(msgType string, payload any) {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		s.conn.logger.Error("Failed to encode map message", "type", msgType, "error", err)
		return
	}
	s.conn.send(data)
}

func (s *Stream) Recenter(center core.GeoSample) {
	tx, ty := geo.TileXY(center.Latitude, center.Longitude, geo.DefaultZoom)
	s.sendEnvelope(streaming.TypeRecenter, streaming.RecenterPayload{
		Center: center,
		TileX:  tx,
		TileY:  ty,
		Zoom:   geo.DefaultZoom,
	})
}

func (s *Stream) Render(frame Frame) {
	payload := streaming.FramePayload{
		Center:     frame.Center,
		Path:       frame.Path,
		Places:     frame.Places,
		PathLength: geo.PathLengthMeters(frame.Path),
	}
	if payload.Path == nil {
		payload.Path = []core.GeoSample{}
	}
	if payload.Places == nil {
		payload.Places = []core.NamedPlace{}
	}

	data, err := marshalEnvelope(streaming.TypeFrame, payload)
	if err != nil {
		s.conn.logger.Error("Failed to encode frame", "error", err)
		return
	}

	s.conn.mu.Lock()
	s.conn.lastFrame = data
	s.conn.mu.Unlock()

	s.conn.send(data)
}

func (s *Stream) ShowElapsed(d time.Duration) {
	s.sendEnvelope(streaming.TypeElapsed, streaming.ElapsedPayload{
		Millis: d.Milliseconds(),
		Label:  session.FormatElapsed(d),
	})
}
