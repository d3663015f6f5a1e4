package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/snappy"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/validation"
)

// NNGSource subscribes to a mangos PUB socket. Each message is an optional
// topic prefix followed by a JSON snapshot, plain or snappy compressed.
type NNGSource struct {
	addr        string
	topic       []byte
	recvTimeout time.Duration
	opts        options
}

// NewNNGSource creates a subscriber for addr, e.g. "tcp://127.0.0.1:7450".
// An empty topic receives every message.
func NewNNGSource(addr, topic string, recvTimeout time.Duration, opts ...Option) *NNGSource {
	return &NNGSource{
		addr:        addr,
		topic:       []byte(topic),
		recvTimeout: validation.DefaultOrDuration(recvTimeout, time.Second),
		opts:        newOptions("nng", opts),
	}
}

func (n *NNGSource) Name() string { return "nng:" + n.addr }

// Run dials the publisher and delivers snapshots until ctx is done. The dial
// is asynchronous, so the publisher may come up later. Undecodable messages
// are logged and skipped.
func (n *NNGSource) Run(ctx context.Context, deliver func(topology.Snapshot)) error {
	sock, err := sub.NewSocket()
	if err != nil {
		return fmt.Errorf("failed to create SUB socket: %w", err)
	}
	defer sock.Close()

	if err := sock.SetOption(mangos.OptionDialAsynch, true); err != nil {
		return fmt.Errorf("failed to set async dial: %w", err)
	}
	if err := sock.Dial(n.addr); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", n.addr, err)
	}
	// SUB uses prefix matching on the message bytes
	if err := sock.SetOption(mangos.OptionSubscribe, n.topic); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, n.recvTimeout); err != nil {
		return fmt.Errorf("failed to set receive deadline: %w", err)
	}
	n.opts.logger.Info("subscribed to snapshot stream", logging.String("address", n.addr))

	for {
		if ctx.Err() != nil {
			return nil
		}
		msg, err := sock.Recv()
		switch {
		case errors.Is(err, mangos.ErrRecvTimeout):
			continue
		case errors.Is(err, mangos.ErrClosed):
			return nil
		case err != nil:
			n.opts.record("nng", StatusReadError)
			n.opts.logger.Warn("snapshot receive failed", logging.Error(err))
			continue
		}
		n.handle(msg, deliver)
	}
}

func (n *NNGSource) handle(msg []byte, deliver func(topology.Snapshot)) {
	data, err := payload(bytes.TrimPrefix(msg, n.topic))
	if err != nil {
		n.opts.record("nng", StatusDecodeError)
		n.opts.logger.Warn("snapshot message dropped", logging.Error(err), logging.Int("bytes", len(msg)))
		return
	}
	snap, diags, err := topology.DecodeSnapshotBytes(data, topology.FormatJSON)
	if err != nil {
		n.opts.record("nng", StatusDecodeError)
		n.opts.logger.Warn("snapshot message dropped", logging.Error(err), logging.Int("bytes", len(msg)))
		return
	}
	n.opts.logDiagnostics(diags)
	n.opts.record("nng", StatusOK)
	n.opts.logger.Debug("snapshot received",
		logging.Int("nodes", len(snap.Nodes)),
		logging.Int("edges", len(snap.Edges)),
	)
	deliver(snap)
}

// payload returns the JSON document of a message body. Bodies that do not
// start with a JSON object are snappy blocks.
func payload(body []byte) ([]byte, error) {
	if trimmed := bytes.TrimLeft(body, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '{' {
		return body, nil
	}
	data, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return data, nil
}

// Publisher broadcasts snapshots to NNGSource subscribers.
type Publisher struct {
	mu       sync.Mutex
	sock     mangos.Socket
	topic    []byte
	compress bool
}

// NewPublisher listens on addr with a PUB socket. With compress set, message
// bodies are snappy blocks.
func NewPublisher(addr, topic string, compress bool) (*Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &Publisher{sock: sock, topic: []byte(topic), compress: compress}, nil
}

// Publish sends s to every connected subscriber. Subscribers that are not
// connected yet miss it.
func (p *Publisher) Publish(s topology.Snapshot) error {
	var doc bytes.Buffer
	if err := topology.EncodeSnapshot(&doc, s); err != nil {
		return err
	}
	body := doc.Bytes()
	if p.compress {
		body = snappy.Encode(nil, body)
	}
	msg := make([]byte, 0, len(p.topic)+len(body))
	msg = append(append(msg, p.topic...), body...)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.sock.Send(msg); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Close closes the socket.
func (p *Publisher) Close() error {
	return p.sock.Close()
}
