// Package engine hosts the nodes of a flow and routes their messages over a watermill pub/sub.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/weatherflow/pkg/eventbus"
	"github.com/dukex/weatherflow/pkg/events"
	"github.com/dukex/weatherflow/pkg/fetch"
	"github.com/dukex/weatherflow/pkg/metric"
	"github.com/dukex/weatherflow/pkg/models"
	"github.com/dukex/weatherflow/pkg/otelhelper"
	"github.com/dukex/weatherflow/pkg/protocol"
	"github.com/dukex/weatherflow/pkg/registry"
	"github.com/dukex/weatherflow/pkg/status"
)

// Config wires an engine. Flow, Registry, Publisher and Subscriber are required.
// The engine owns Publisher, Subscriber and EventBus and closes them on Close.
type Config struct {
	Flow       *models.FlowDefinition
	Registry   *registry.Registry
	Publisher  message.Publisher
	Subscriber message.Subscriber

	EventBus eventbus.EventBus
	Status   status.Store
	Metrics  *metric.Metrics
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Fetcher  fetch.Fetcher
	Now      func() time.Time
}

// NodeInfo describes a running node instance.
type NodeInfo struct {
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	Name        string              `json:"name,omitempty"`
	Input       bool                `json:"accepts_input"`
	InputPorts  []models.InputPort  `json:"input_ports,omitempty"`
	OutputPorts []models.OutputPort `json:"output_ports,omitempty"`
}

type runningNode struct {
	definition *models.FlowNode
	node       protocol.Node
}

// Engine instantiates every node of a flow, delivers messages one at a time per node
// and collects their status reports.
type Engine struct {
	flow       *models.FlowDefinition
	publisher  message.Publisher
	subscriber message.Subscriber
	eventBus   eventbus.EventBus
	store      status.Store
	metrics    *metric.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	nodes map[string]*runningNode
	order []string

	mu      sync.Mutex
	started bool
	closed  atomic.Bool
	runCtx  context.Context
	cancel  context.CancelFunc
	loops   sync.WaitGroup
}

// New creates every node of the flow. No message moves until Start.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Flow == nil || cfg.Registry == nil || cfg.Publisher == nil || cfg.Subscriber == nil {
		return nil, fmt.Errorf("%w: flow, registry, publisher and subscriber are required", ErrInvalidEngineConfig)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Status == nil {
		cfg.Status = status.NewMemoryStore()
	}

	if cfg.Metrics == nil {
		cfg.Metrics = metric.NewMetrics()
	}

	if cfg.Tracer == nil {
		cfg.Tracer = otelhelper.GlobalTracer("weatherflow/engine")
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	e := &Engine{
		flow:       cfg.Flow,
		publisher:  cfg.Publisher,
		subscriber: cfg.Subscriber,
		eventBus:   cfg.EventBus,
		store:      cfg.Status,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With("module", "engine", "flow", cfg.Flow.Name),
		tracer:     cfg.Tracer,
		now:        cfg.Now,
		nodes:      make(map[string]*runningNode, len(cfg.Flow.Nodes)),
	}

	deps := protocol.Dependencies{
		Logger:  cfg.Logger,
		Status:  protocol.StatusReporterFunc(e.reportStatus),
		Fetcher: cfg.Fetcher,
		Tracer:  cfg.Tracer,
		Now:     cfg.Now,
	}

	for _, definition := range cfg.Flow.Nodes {
		node, err := cfg.Registry.CreateNode(ctx, definition.Type, definition.ID, definition.Config, deps)
		if err != nil {
			e.closeNodes(ctx)

			return nil, fmt.Errorf("create node %s: %w", definition.ID, err)
		}

		e.nodes[definition.ID] = &runningNode{definition: definition, node: node}
		e.order = append(e.order, definition.ID)
	}

	return e, nil
}

// Start subscribes every input node to its topic, then starts the autonomous producers.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrClosed
	}

	if e.started {
		return ErrAlreadyStarted
	}

	e.runCtx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))

	for _, id := range e.order {
		rn := e.nodes[id]

		handler, ok := rn.node.(protocol.InputHandler)
		if !ok {
			continue
		}

		messages, err := e.subscriber.Subscribe(e.runCtx, InputTopic(id))
		if err != nil {
			e.cancel()

			return fmt.Errorf("subscribe node %s: %w", id, err)
		}

		e.loops.Add(1)

		go e.consume(e.runCtx, rn, handler, messages)
	}

	e.started = true

	for _, id := range e.order {
		rn := e.nodes[id]

		if starter, ok := rn.node.(protocol.Starter); ok {
			if err := starter.Start(e.runCtx, e.sendFunc(e.runCtx, rn)); err != nil {
				return fmt.Errorf("start node %s: %w", id, err)
			}
		}

		e.publishEvent(ctx, id, events.NodeStarted{
			BaseEvent: events.NewBaseEvent(events.NodeStartedEvent, e.flow.Name),
			NodeID:    id,
			NodeType:  rn.definition.Type,
		})
	}

	e.metrics.NodesRunning.Set(float64(len(e.nodes)))
	e.logger.InfoContext(ctx, "Flow started", "nodes", len(e.nodes))

	return nil
}

// consume runs the delivery loop of one node. The bus does not deliver the next message
// until the current one is acked, so a node never sees two inputs at once.
func (e *Engine) consume(ctx context.Context, rn *runningNode, handler protocol.InputHandler, messages <-chan *message.Message) {
	defer e.loops.Done()

	for wm := range messages {
		e.deliver(ctx, rn, handler, wm)
		wm.Ack()
	}
}

func (e *Engine) deliver(ctx context.Context, rn *runningNode, handler protocol.InputHandler, wm *message.Message) {
	id, nodeType := rn.definition.ID, rn.definition.Type
	logger := e.logger.With("node_id", id, "node_type", nodeType)

	msg, err := decodeMessage(wm)
	if err != nil {
		e.metrics.RecordMessage(id, nodeType, metric.ResultDecodeError)
		logger.ErrorContext(ctx, "Dropping undecodable message", "error", err)

		return
	}

	if e.closed.Load() {
		return
	}

	e.metrics.RecordMessage(id, nodeType, metric.ResultReceived)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "node.handle",
		append(otelhelper.NodeAttributes(id, nodeType),
			attribute.String(otelhelper.MessageIDKey, msg.ID),
			attribute.String(otelhelper.FlowNameKey, e.flow.Name))...)
	defer span.End()

	var acked atomic.Bool

	done := func(err error) {
		if !acked.CompareAndSwap(false, true) {
			logger.WarnContext(ctx, "Completion signalled more than once", "msg_id", msg.ID)

			return
		}

		if err != nil {
			otelhelper.SetError(span, err)
			logger.ErrorContext(ctx, "Node failed to handle message", "msg_id", msg.ID, "error", err)
		}
	}

	started := time.Now()
	handler.HandleInput(ctx, msg, e.sendFunc(ctx, rn), done)
	e.metrics.ObserveHandle(id, nodeType, time.Since(started))

	if acked.Load() {
		e.metrics.RecordMessage(id, nodeType, metric.ResultAcked)

		return
	}

	e.metrics.RecordMessage(id, nodeType, metric.ResultUnacked)
	logger.DebugContext(ctx, "Input returned without completion", "msg_id", msg.ID, "topic", msg.Topic)

	e.publishEvent(ctx, id, events.NodeInputUnacked{
		BaseEvent: events.NewBaseEvent(events.NodeInputUnackedEvent, e.flow.Name),
		NodeID:    id,
		NodeType:  nodeType,
		MessageID: msg.ID,
		Topic:     msg.Topic,
	})
}

func (e *Engine) sendFunc(ctx context.Context, rn *runningNode) protocol.SendFunc {
	return func(msg *models.Message) {
		e.send(ctx, rn, msg)
	}
}

// send publishes msg once per outgoing connection, stamping the connection port.
func (e *Engine) send(ctx context.Context, source *runningNode, msg *models.Message) {
	if msg == nil || e.closed.Load() {
		return
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	id := source.definition.ID
	e.metrics.RecordMessage(id, source.definition.Type, metric.ResultSent)

	for _, connection := range e.flow.Targets(id) {
		out := msg.Clone()
		out.Port = nil

		if connection.Port != nil {
			out.WithPort(*connection.Port)
		}

		if err := e.publish(ctx, out, id, connection.Target); err != nil {
			e.logger.ErrorContext(ctx, "Failed to route message",
				"source", id, "target", connection.Target, "msg_id", msg.ID, "error", err)
		}
	}
}

func (e *Engine) publish(ctx context.Context, msg *models.Message, source, target string) error {
	wm, err := encodeMessage(msg, source, target)
	if err != nil {
		return err
	}

	wm.SetContext(ctx)

	return e.publisher.Publish(InputTopic(target), wm)
}

// Inject delivers msg to the input of nodeID as if it came over a connection.
func (e *Engine) Inject(ctx context.Context, nodeID string, msg *models.Message) error {
	if e.closed.Load() {
		return ErrClosed
	}

	rn, ok := e.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	if _, ok := rn.node.(protocol.InputHandler); !ok {
		return fmt.Errorf("%w: %s", ErrNotInputNode, nodeID)
	}

	e.mu.Lock()
	started := e.started
	e.mu.Unlock()

	if !started {
		return ErrNotStarted
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	return e.publish(ctx, msg, "", nodeID)
}

func (e *Engine) reportStatus(ctx context.Context, nodeID string, reported models.Status) {
	nodeType := ""
	if definition := e.flow.Node(nodeID); definition != nil {
		nodeType = definition.Type
	}

	if err := e.store.Set(ctx, models.NodeStatus{
		NodeID:     nodeID,
		NodeType:   nodeType,
		Status:     reported,
		ReportedAt: e.now().UTC(),
	}); err != nil {
		e.logger.WarnContext(ctx, "Failed to store node status", "node_id", nodeID, "error", err)
	}

	e.metrics.RecordStatus(nodeID, reported)

	e.publishEvent(ctx, nodeID, events.NodeStatusReported{
		BaseEvent: events.NewBaseEvent(events.NodeStatusReportedEvent, e.flow.Name),
		NodeID:    nodeID,
		NodeType:  nodeType,
		Status:    reported,
	})

	e.logger.DebugContext(ctx, "Node status", "node_id", nodeID, "severity", reported.Severity, "text", reported.Text)
}

func (e *Engine) publishEvent(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// Nodes describes every node of the flow in definition order.
func (e *Engine) Nodes() []NodeInfo {
	infos := make([]NodeInfo, 0, len(e.order))

	for _, id := range e.order {
		rn := e.nodes[id]
		_, input := rn.node.(protocol.InputHandler)

		info := NodeInfo{
			ID:    id,
			Type:  rn.definition.Type,
			Name:  rn.definition.Name,
			Input: input,
		}

		if describer, ok := rn.node.(protocol.PortDescriber); ok {
			info.InputPorts = describer.InputPorts()
			info.OutputPorts = describer.OutputPorts()
		}

		infos = append(infos, info)
	}

	return infos
}

// Node returns the description of one node.
func (e *Engine) Node(nodeID string) (NodeInfo, error) {
	for _, info := range e.Nodes() {
		if info.ID == nodeID {
			return info, nil
		}
	}

	return NodeInfo{}, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
}

// Status returns the last status nodeID reported.
func (e *Engine) Status(ctx context.Context, nodeID string) (models.NodeStatus, error) {
	if _, ok := e.nodes[nodeID]; !ok {
		return models.NodeStatus{}, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	return e.store.Get(ctx, nodeID)
}

// Statuses returns the last status of every node that reported one.
func (e *Engine) Statuses(ctx context.Context) ([]models.NodeStatus, error) {
	return e.store.List(ctx)
}

// FlowName returns the name of the running flow.
func (e *Engine) FlowName() string {
	return e.flow.Name
}

// Close tears nodes down in reverse order, stops the delivery loops and closes the bus.
// No node emits after Close returns. Calling it again is a no-op.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	errs := e.closeNodes(ctx)

	if e.cancel != nil {
		e.cancel()
	}

	loopsDone := make(chan struct{})

	go func() {
		e.loops.Wait()
		close(loopsDone)
	}()

	select {
	case <-loopsDone:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for delivery loops: %w", ctx.Err()))
	}

	if err := e.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}

	if any(e.subscriber) != any(e.publisher) {
		if err := e.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}

	if e.eventBus != nil {
		if err := e.eventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	e.metrics.NodesRunning.Set(0)
	e.logger.InfoContext(ctx, "Flow stopped")

	return errors.Join(errs...)
}

func (e *Engine) closeNodes(ctx context.Context) []error {
	var errs []error

	for i := len(e.order) - 1; i >= 0; i-- {
		id := e.order[i]
		rn := e.nodes[id]

		closer, ok := rn.node.(protocol.Closer)
		if !ok {
			continue
		}

		err := closer.Close(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("close node %s: %w", id, err))
		}

		stopped := events.NodeStopped{
			BaseEvent: events.NewBaseEvent(events.NodeStoppedEvent, e.flow.Name),
			NodeID:    id,
			NodeType:  rn.definition.Type,
		}
		if err != nil {
			stopped.Error = err.Error()
		}

		e.publishEvent(ctx, id, stopped)
	}

	return errs
}
