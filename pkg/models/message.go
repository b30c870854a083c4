// Package models defines the data carried between flow nodes and reported by them.
package models

import (
	"github.com/google/uuid"
)

// Message is the unit of data exchanged between nodes.
type Message struct {
	ID      string `json:"_msgid"`
	Payload any    `json:"payload"`
	Topic   string `json:"topic,omitempty"`
	Port    *int   `json:"_port,omitempty"` // 0-based input wire index, when the host knows it
}

// NewMessage creates a message with a fresh ID.
func NewMessage(payload any) *Message {
	return &Message{
		ID:      uuid.NewString(),
		Payload: payload,
	}
}

// WithTopic sets the routing topic and returns the message.
func (m *Message) WithTopic(topic string) *Message {
	m.Topic = topic

	return m
}

// WithPort sets the input port index and returns the message.
func (m *Message) WithPort(port int) *Message {
	m.Port = &port

	return m
}

// ArrivedOn reports whether the message carries the given input port index.
func (m *Message) ArrivedOn(port int) bool {
	return m.Port != nil && *m.Port == port
}

// Clone returns a shallow copy with its own routing metadata.
// The payload value is shared.
func (m *Message) Clone() *Message {
	c := *m
	if m.Port != nil {
		port := *m.Port
		c.Port = &port
	}

	return &c
}
