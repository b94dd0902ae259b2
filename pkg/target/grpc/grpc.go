// Package grpc implements the "grpc" target: a minimal unary
// "Deliver(bytes) returns (ack)" RPC, built on google.golang.org/grpc and
// google.golang.org/protobuf without any protoc-generated service stub. The
// payload travels as a wrapperspb.BytesValue (a message type shipped inside
// the protobuf runtime itself), and the current state rides along as
// outgoing metadata, so no .proto file or code generation step is needed to
// exercise the client-side of the wire contract.
package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"firestige.xyz/webhookd/internal/core"
	"firestige.xyz/webhookd/internal/log"
	"firestige.xyz/webhookd/pkg/plugin"
	"firestige.xyz/webhookd/pkg/program"
	"firestige.xyz/webhookd/pkg/state"
)

func init() {
	plugin.RegisterTarget("grpc", func() plugin.Target { return &Sender{} })
}

// defaultMethod is the full RPC method path invoked on the target service.
// A generated-free envelope has no service descriptor to name it any other
// way, so it is a fixed, documented constant rather than per-definition
// configuration.
const defaultMethod = "/webhookd.Delivery/Deliver"

const stateMetadataKey = "webhookd-state-bin"

// Sender is the grpc target plugin.
type Sender struct {
	address string
	conn    *grpc.ClientConn
}

func (s *Sender) Name() string { return "grpc" }

// Init parses the raw TargetSpec map, which carries the "grpc"
// discriminator key itself: {"grpc": {"address": "host:port"}}.
func (s *Sender) Init(cfgMap map[string]any) error {
	raw, ok := cfgMap["grpc"]
	if !ok {
		return fmt.Errorf("grpc target: missing %q key: %w", "grpc", core.ErrInvalidConfig)
	}
	sub, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("grpc target: %q must be a map: %w", "grpc", core.ErrInvalidConfig)
	}
	address, _ := sub["address"].(string)
	if address == "" {
		return fmt.Errorf("grpc target: missing address: %w", core.ErrInvalidConfig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		ctx,
		address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return fmt.Errorf("grpc target: dialing %q: %w", address, err)
	}

	s.address = address
	s.conn = conn
	return nil
}

func (s *Sender) Start(ctx context.Context) error { return nil }

func (s *Sender) Stop(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Send invokes the unary Deliver RPC with the payload as a BytesValue and
// the current state JSON-encoded into outgoing metadata. Transport/codec
// failures are logged; Send still returns nil so a failing target never
// blocks delivery to the others in the same fan-out.
func (s *Sender) Send(ctx context.Context, payload core.Payload, st state.State) error {
	if st.Len() > 0 {
		if encoded, err := program.ItemToJSON(st.AsItem()); err != nil {
			log.GetLogger().WithError(err).Errorf("grpc target: encoding state metadata for %q", s.address)
		} else {
			ctx = metadata.AppendToOutgoingContext(ctx, stateMetadataKey, string(encoded))
		}
	}

	req := &wrapperspb.BytesValue{Value: payload.Content}
	resp := &wrapperspb.BytesValue{}

	if err := s.conn.Invoke(ctx, defaultMethod, req, resp); err != nil {
		log.GetLogger().WithError(err).Errorf("grpc target: invoking %s on %q", defaultMethod, s.address)
	}
	return nil
}
