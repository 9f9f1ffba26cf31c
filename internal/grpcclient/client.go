package grpcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"telematics-bridge/internal/events"
)

// SendDataMethod is the forwarder's unary method. Requests and responses are
// google.protobuf.Struct messages.
const SendDataMethod = "/forwarder.Forwarder/SendData"

type GRPCClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn, timeout: 5 * time.Second}, nil
}

func (g *GRPCClient) Close() error {
	return g.conn.Close()
}

func (g *GRPCClient) Name() string { return "grpc" }

// Send forwards one delivered event upstream.
func (g *GRPCClient) Send(ctx context.Context, deviceID string, ev events.Event) error {
	req, err := toStruct(deviceID, ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res := new(structpb.Struct)
	if err := g.conn.Invoke(ctx, SendDataMethod, req, res); err != nil {
		return fmt.Errorf("forwarder: %w", err)
	}
	if ok := res.GetFields()["success"]; ok == nil || !ok.GetBoolValue() {
		return fmt.Errorf("forwarder: rejected %s for device %s", ev.Kind, deviceID)
	}
	return nil
}

func toStruct(deviceID string, ev events.Event) (*structpb.Struct, error) {
	// Round-trip through JSON so payload field names match the consumer's.
	raw, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", ev.Kind, err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", ev.Kind, err)
	}
	return structpb.NewStruct(map[string]any{
		"device_id": deviceID,
		"kind":      string(ev.Kind),
		"received":  ev.Received.UTC().Format(time.RFC3339Nano),
		"payload":   payload,
	})
}
