// Package nodetest provides a recording host for exercising nodes in tests.
package nodetest

import (
	"context"
	"sync"

	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/protocol"
)

// Recorder captures everything a node hands back to its host.
type Recorder struct {
	mu       sync.Mutex
	sent     []*models.Message
	statuses []models.Status
	dones    []error
	sentCh   chan *models.Message
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{sentCh: make(chan *models.Message, 64)}
}

// Dependencies returns node dependencies that report into the recorder.
func (r *Recorder) Dependencies() protocol.Dependencies {
	return protocol.Dependencies{Status: r}.WithDefaults()
}

// ReportStatus implements protocol.StatusReporter.
func (r *Recorder) ReportStatus(_ context.Context, _ string, status models.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statuses = append(r.statuses, status)
}

// Send is a protocol.SendFunc.
func (r *Recorder) Send(msg *models.Message) {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()

	select {
	case r.sentCh <- msg:
	default:
	}
}

// Done is a protocol.DoneFunc.
func (r *Recorder) Done(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dones = append(r.dones, err)
}

// Sent returns a copy of the forwarded messages.
func (r *Recorder) Sent() []*models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*models.Message(nil), r.sent...)
}

// SentCh yields forwarded messages as they arrive.
func (r *Recorder) SentCh() <-chan *models.Message {
	return r.sentCh
}

// Statuses returns a copy of the reported statuses.
func (r *Recorder) Statuses() []models.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]models.Status(nil), r.statuses...)
}

// LastStatus returns the most recent status, or the zero value.
func (r *Recorder) LastStatus() models.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.statuses) == 0 {
		return models.Status{}
	}

	return r.statuses[len(r.statuses)-1]
}

// Dones returns a copy of the completion signals.
func (r *Recorder) Dones() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]error(nil), r.dones...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent, r.statuses, r.dones = nil, nil, nil
}
