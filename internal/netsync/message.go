package netsync

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/zeusync/arcade/internal/core/world"
)

// MessageType tags every frame on the wire.
type MessageType string

const (
	// TypeTick tells a client that one more tick may run.
	TypeTick MessageType = "tick"
	// TypeInput carries the input a peer applied in a tick and its resulting checksum.
	TypeInput MessageType = "input"
)

// Message is the JSON text frame exchanged between server and clients.
type Message struct {
	Type     MessageType  `json:"type"`
	Tick     uint64       `json:"tick"`
	Input    *world.Input `json:"input,omitempty"`
	Checksum uint64       `json:"checksum,omitempty"`
}

func (m Message) Validate() error {
	switch m.Type {
	case TypeTick:
		return nil
	case TypeInput:
		if m.Input == nil {
			return errors.Wrap(ErrInvalidMessage, "input message without input")
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidMessage, "unknown type %q", m.Type)
	}
}

func decodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, errors.Wrap(ErrInvalidMessage, err.Error())
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

func encodeMessage(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal message")
	}
	return data, nil
}
