package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"
)

const (
	defaultDialTimeout    = 5 * time.Second
	defaultRequestTimeout = 5 * time.Second

	policyNone = "None"
)

// OPCUADialer connects to an OPC-UA server with gopcua.
type OPCUADialer struct {
	SecurityPolicy string // "None" (default), "Basic256Sha256", ...
	SecurityMode   string // "None", "Sign", "SignAndEncrypt"
	CertFile       string
	KeyFile        string
	DialTimeout    time.Duration
	RequestTimeout time.Duration

	// ApplicationName is announced to the server and used as the session
	// name, so the PLC diagnostics show who is connected.
	ApplicationName string

	// Types is registered by LoadTypes; it may be nil.
	Types TypeSet

	// endpoints lists the server endpoints; nil means opcua.GetEndpoints.
	endpoints func(ctx context.Context, endpoint string) ([]*ua.EndpointDescription, error)
}

// Dial opens a session. The client's own reconnect is disabled; the caller
// owns the reconnect loop.
func (d *OPCUADialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	opts, err := d.options(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	c, err := opcua.NewClient(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("transport: create client: %w", err)
	}

	if err := c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("transport: connect %s: %w", endpoint, err)
	}

	return &opcuaConn{client: c, types: d.Types}, nil
}

func (d *OPCUADialer) options(ctx context.Context, endpoint string) ([]opcua.Option, error) {
	opts := []opcua.Option{
		opcua.AutoReconnect(false),
		opcua.DialTimeout(orDefault(d.DialTimeout, defaultDialTimeout)),
		opcua.RequestTimeout(orDefault(d.RequestTimeout, defaultRequestTimeout)),
	}
	if d.ApplicationName != "" {
		opts = append(opts, opcua.ApplicationName(d.ApplicationName), opcua.SessionName(d.ApplicationName))
	}

	policy := d.SecurityPolicy
	if policy == "" || policy == policyNone {
		return append(opts,
			opcua.SecurityPolicy(policyNone),
			opcua.SecurityMode(ua.MessageSecurityModeNone),
		), nil
	}

	list := d.endpoints
	if list == nil {
		list = func(ctx context.Context, endpoint string) ([]*ua.EndpointDescription, error) {
			return opcua.GetEndpoints(ctx, endpoint)
		}
	}
	endpoints, err := list(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("transport: get endpoints: %w", err)
	}

	ep := opcua.SelectEndpoint(endpoints, policy, securityMode(d.SecurityMode))
	if ep == nil {
		return nil, fmt.Errorf("%w: %s/%s at %s", ErrNoEndpoint, policy, d.SecurityMode, endpoint)
	}

	opts = append(opts, opcua.SecurityFromEndpoint(ep, ua.UserTokenTypeAnonymous))
	if d.CertFile != "" {
		opts = append(opts, opcua.CertificateFile(d.CertFile), opcua.PrivateKeyFile(d.KeyFile))
	}
	return opts, nil
}

type opcuaConn struct {
	client *opcua.Client
	types  TypeSet
}

// LoadTypes registers the structured types and checks that the server knows
// every encoding id, so a mismatched PLC program fails the connect instead
// of producing undecodable reads later.
func (c *opcuaConn) LoadTypes(ctx context.Context) error {
	if c.types == nil {
		return nil
	}
	if err := c.types.Register(); err != nil {
		return err
	}
	if _, err := c.Resolve(ctx, c.types.EncodingIDs()); err != nil {
		return fmt.Errorf("transport: load types: %w", err)
	}
	return nil
}

func (c *opcuaConn) Resolve(ctx context.Context, paths []string) (map[string]Handle, error) {
	handles := make(map[string]Handle, len(paths))
	if len(paths) == 0 {
		return handles, nil
	}

	req := &ua.ReadRequest{
		NodesToRead:        make([]*ua.ReadValueID, 0, len(paths)),
		TimestampsToReturn: ua.TimestampsToReturnNeither,
	}
	for _, p := range paths {
		id, err := ua.ParseNodeID(p)
		if err != nil {
			return nil, fmt.Errorf("transport: parse node id %q: %w", p, err)
		}
		handles[p] = Handle{Path: p, ID: id}
		req.NodesToRead = append(req.NodesToRead, &ua.ReadValueID{
			NodeID:      id,
			AttributeID: ua.AttributeIDNodeClass,
		})
	}

	resp, err := c.client.Read(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve: %w", err)
	}
	if len(resp.Results) != len(paths) {
		return nil, fmt.Errorf("%w: resolve got %d results for %d nodes", ErrNoResult, len(resp.Results), len(paths))
	}
	for i, r := range resp.Results {
		if r.Status != ua.StatusOK {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownNode, paths[i], r.Status)
		}
	}

	return handles, nil
}

func (c *opcuaConn) Read(ctx context.Context, h Handle) (any, error) {
	if h.ID == nil {
		return nil, fmt.Errorf("%w: %s not resolved", ErrUnknownNode, h.Path)
	}

	req := &ua.ReadRequest{
		NodesToRead: []*ua.ReadValueID{
			{NodeID: h.ID, AttributeID: ua.AttributeIDValue},
		},
		TimestampsToReturn: ua.TimestampsToReturnNeither,
	}

	resp, err := c.client.Read(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transport: read %s: %w", h.Path, err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: read %s", ErrNoResult, h.Path)
	}

	result := resp.Results[0]
	if result.Status != ua.StatusOK {
		return nil, fmt.Errorf("transport: read %s: %w", h.Path, result.Status)
	}
	if result.Value == nil {
		return nil, nil
	}

	return Normalize(result.Value.Value()), nil
}

func (c *opcuaConn) Write(ctx context.Context, h Handle, value any) error {
	if h.ID == nil {
		return fmt.Errorf("%w: %s not resolved", ErrUnknownNode, h.Path)
	}

	variant, err := ua.NewVariant(value)
	if err != nil {
		return fmt.Errorf("transport: encode %T for %s: %w", value, h.Path, err)
	}

	req := &ua.WriteRequest{
		NodesToWrite: []*ua.WriteValue{
			{
				NodeID:      h.ID,
				AttributeID: ua.AttributeIDValue,
				Value: &ua.DataValue{
					EncodingMask: ua.DataValueValue,
					Value:        variant,
				},
			},
		},
	}

	resp, err := c.client.Write(ctx, req)
	if err != nil {
		return fmt.Errorf("transport: write %s: %w", h.Path, err)
	}
	if len(resp.Results) == 0 {
		return fmt.Errorf("%w: write %s", ErrNoResult, h.Path)
	}
	if resp.Results[0] != ua.StatusOK {
		return fmt.Errorf("transport: write %s: %w", h.Path, resp.Results[0])
	}
	return nil
}

func (c *opcuaConn) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// Normalize unwraps extension objects so callers see the registered Go values.
func Normalize(v any) any {
	switch x := v.(type) {
	case *ua.ExtensionObject:
		if x == nil {
			return nil
		}
		return x.Value
	case []*ua.ExtensionObject:
		out := make([]any, len(x))
		for i, eo := range x {
			if eo != nil {
				out[i] = eo.Value
			}
		}
		return out
	default:
		return v
	}
}

func securityMode(mode string) ua.MessageSecurityMode {
	switch mode {
	case "None":
		return ua.MessageSecurityModeNone
	case "Sign":
		return ua.MessageSecurityModeSign
	case "SignAndEncrypt":
		return ua.MessageSecurityModeSignAndEncrypt
	default:
		return ua.MessageSecurityModeInvalid
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
