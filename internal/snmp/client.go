// Package snmp is the gosnmp-backed transport for the session controller.
package snmp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

var authProtocols = map[string]gosnmp.SnmpV3AuthProtocol{
	"No Auth": gosnmp.NoAuth,
	"MD5":     gosnmp.MD5,
	"SHA":     gosnmp.SHA,
	"SHA224":  gosnmp.SHA224,
	"SHA256":  gosnmp.SHA256,
	"SHA384":  gosnmp.SHA384,
	"SHA512":  gosnmp.SHA512,
}

var privProtocols = map[string]gosnmp.SnmpV3PrivProtocol{
	"No Priv": gosnmp.NoPriv,
	"DES":     gosnmp.DES,
	"AES":     gosnmp.AES,
	"AES192":  gosnmp.AES192,
	"AES256":  gosnmp.AES256,
	"AES192C": gosnmp.AES192C,
	"AES256C": gosnmp.AES256C,
}

// Options tune every client the transport opens
type Options struct {
	MaxRepetitions     uint32
	ExponentialTimeout bool
	// DebugLog routes gosnmp's packet trace into Logger
	DebugLog bool
	Logger   *slog.Logger
}

// Client wraps one gosnmp handle bound to a profile
type Client struct {
	snmp    *gosnmp.GoSNMP
	profile models.ConnectionProfile
	cancel  context.CancelFunc
}

// NewClient builds the gosnmp handle for profile and connects it
func NewClient(ctx context.Context, profile models.ConnectionProfile, opts Options) (*Client, error) {
	g, err := buildConfig(profile.WithDefaults(), opts)
	if err != nil {
		return nil, err
	}

	// The handle outlives ctx; Close cancels it
	clientCtx, cancel := context.WithCancel(context.Background())
	g.Context = clientCtx

	connected := make(chan error, 1)
	go func() { connected <- g.Connect() }()

	select {
	case err = <-connected:
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect to %s: %w", profile.Address(), err)
	}

	return &Client{snmp: g, profile: profile, cancel: cancel}, nil
}

// buildConfig maps a profile onto gosnmp settings
func buildConfig(p models.ConnectionProfile, opts Options) (*gosnmp.GoSNMP, error) {
	g := &gosnmp.GoSNMP{
		Target:             p.Target,
		Port:               uint16(p.Port),
		Transport:          string(p.Transport),
		Community:          p.Community,
		Timeout:            time.Duration(p.Timeout) * time.Second,
		Retries:            p.Retries,
		ExponentialTimeout: opts.ExponentialTimeout,
		MaxOids:            gosnmp.MaxOids,
		MaxRepetitions:     opts.MaxRepetitions,
	}
	if g.MaxRepetitions == 0 {
		g.MaxRepetitions = 10
	}
	if opts.DebugLog && opts.Logger != nil {
		g.Logger = gosnmp.NewLogger(slog.NewLogLogger(opts.Logger.Handler(), slog.LevelDebug))
	}

	switch p.Version {
	case models.Version1:
		g.Version = gosnmp.Version1
	case models.Version2c:
		g.Version = gosnmp.Version2c
	case models.Version3:
		g.Version = gosnmp.Version3
		if p.SecurityModel == models.SecurityModelUSM {
			g.SecurityModel = gosnmp.UserSecurityModel
		}

		sp := p.SecurityParameters
		auth, ok := authProtocols[sp.AuthenticationProtocol]
		if !ok {
			return nil, models.NewValidationError("authentication_protocol",
				fmt.Sprintf("unknown authentication protocol %q", sp.AuthenticationProtocol))
		}
		priv, ok := privProtocols[sp.PrivacyProtocol]
		if !ok {
			return nil, models.NewValidationError("privacy_protocol",
				fmt.Sprintf("unknown privacy protocol %q", sp.PrivacyProtocol))
		}

		g.MsgFlags = gosnmp.NoAuthNoPriv
		if auth != gosnmp.NoAuth {
			g.MsgFlags = gosnmp.AuthNoPriv
			if priv != gosnmp.NoPriv {
				g.MsgFlags = gosnmp.AuthPriv
			}
		}
		g.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 sp.UserName,
			AuthenticationProtocol:   auth,
			AuthenticationPassphrase: sp.AuthenticationPassphrase,
			PrivacyProtocol:          priv,
			PrivacyPassphrase:        sp.PrivacyPassphrase,
		}
	default:
		return nil, models.NewValidationError("version", fmt.Sprintf("unknown SNMP version %q", p.Version))
	}

	return g, nil
}

// Close releases the socket
func (c *Client) Close() error {
	c.cancel()
	if c.snmp.Conn == nil {
		return nil
	}
	return c.snmp.Conn.Close()
}

// Profile returns the profile the client was opened with
func (c *Client) Profile() models.ConnectionProfile {
	return c.profile
}

// Get fetches the given OIDs
func (c *Client) Get(oids []string) ([]gosnmp.SnmpPDU, error) {
	pkt, err := c.snmp.Get(oids)
	if err != nil {
		return nil, err
	}
	return pkt.Variables, agentError(pkt)
}

// GetNext fetches the successors of the given OIDs
func (c *Client) GetNext(oids []string) ([]gosnmp.SnmpPDU, error) {
	pkt, err := c.snmp.GetNext(oids)
	if err != nil {
		return nil, err
	}
	return pkt.Variables, agentError(pkt)
}

// BulkWalk walks the subtree at root, using GETNEXT on v1 agents
func (c *Client) BulkWalk(root string, fn gosnmp.WalkFunc) error {
	if c.snmp.Version == gosnmp.Version1 {
		return c.snmp.Walk(root, fn)
	}
	return c.snmp.BulkWalk(root, fn)
}

// Set writes the given PDUs
func (c *Client) Set(pdus []gosnmp.SnmpPDU) ([]gosnmp.SnmpPDU, error) {
	pkt, err := c.snmp.Set(pdus)
	if err != nil {
		return nil, err
	}
	return pkt.Variables, agentError(pkt)
}

func agentError(pkt *gosnmp.SnmpPacket) error {
	if pkt.Error == gosnmp.NoError {
		return nil
	}
	return fmt.Errorf("agent returned %s (index %d)", pkt.Error, pkt.ErrorIndex)
}
