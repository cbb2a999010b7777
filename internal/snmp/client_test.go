package snmp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

func TestBuildConfig_Community(t *testing.T) {
	p := models.ConnectionProfile{
		Name:      "lab",
		Target:    "10.1.1.1",
		Port:      1161,
		Timeout:   4,
		Retries:   1,
		Transport: models.TransportTCP,
		Version:   models.Version2c,
		Community: "private",
	}

	g, err := buildConfig(p, Options{})
	require.NoError(t, err)
	require.Equal(t, "10.1.1.1", g.Target)
	require.Equal(t, uint16(1161), g.Port)
	require.Equal(t, "tcp", g.Transport)
	require.Equal(t, 4*time.Second, g.Timeout)
	require.Equal(t, 1, g.Retries)
	require.Equal(t, gosnmp.Version2c, g.Version)
	require.Equal(t, "private", g.Community)
	require.Equal(t, uint32(10), g.MaxRepetitions)
}

func TestBuildConfig_USM(t *testing.T) {
	p := models.ConnectionProfile{
		Name:          "secure",
		Version:       models.Version3,
		SecurityModel: models.SecurityModelUSM,
		SecurityParameters: models.SecurityParameters{
			UserName:                 "ops",
			AuthenticationProtocol:   "SHA256",
			AuthenticationPassphrase: "authpass1",
			PrivacyProtocol:          "AES",
			PrivacyPassphrase:        "privpass1",
		},
	}

	g, err := buildConfig(p.WithDefaults(), Options{MaxRepetitions: 25})
	require.NoError(t, err)
	require.Equal(t, gosnmp.Version3, g.Version)
	require.Equal(t, gosnmp.UserSecurityModel, g.SecurityModel)
	require.Equal(t, gosnmp.AuthPriv, g.MsgFlags)
	require.Equal(t, uint32(25), g.MaxRepetitions)

	usm, ok := g.SecurityParameters.(*gosnmp.UsmSecurityParameters)
	require.True(t, ok)
	require.Equal(t, "ops", usm.UserName)
	require.Equal(t, gosnmp.SHA256, usm.AuthenticationProtocol)
	require.Equal(t, gosnmp.AES, usm.PrivacyProtocol)
}

func TestBuildConfig_MsgFlags(t *testing.T) {
	tests := []struct {
		auth, priv string
		want       gosnmp.SnmpV3MsgFlags
	}{
		{"No Auth", "No Priv", gosnmp.NoAuthNoPriv},
		{"MD5", "No Priv", gosnmp.AuthNoPriv},
		{"SHA", "DES", gosnmp.AuthPriv},
	}
	for _, tt := range tests {
		t.Run(tt.auth+"/"+tt.priv, func(t *testing.T) {
			p := models.ConnectionProfile{
				Name:          "v3",
				Version:       models.Version3,
				SecurityModel: models.SecurityModelUSM,
				SecurityParameters: models.SecurityParameters{
					UserName:               "u",
					AuthenticationProtocol: tt.auth,
					PrivacyProtocol:        tt.priv,
				},
			}
			g, err := buildConfig(p, Options{})
			require.NoError(t, err)
			require.Equal(t, tt.want, g.MsgFlags)
		})
	}
}

func TestBuildConfig_Errors(t *testing.T) {
	_, err := buildConfig(models.ConnectionProfile{Name: "x", Version: "9"}, Options{})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = buildConfig(models.ConnectionProfile{
		Name:               "x",
		Version:            models.Version3,
		SecurityParameters: models.SecurityParameters{AuthenticationProtocol: "ROT13", PrivacyProtocol: "No Priv"},
	}, Options{})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestTransport_NotConnected(t *testing.T) {
	tr := NewTransport(Options{})
	require.False(t, tr.Connected())
	require.NoError(t, tr.Disconnect(context.Background()))

	err := tr.Get(context.Background(), "1.3.6.1.2.1.1.1.0", func(models.ResultRow) {})
	require.True(t, errors.Is(err, ErrNotConnected))
	err = tr.BulkWalk(context.Background(), "1.3.6.1.2.1", func(models.ResultRow) {})
	require.True(t, errors.Is(err, ErrNotConnected))
}

func TestTransport_SetRejectsBadValueBeforeCall(t *testing.T) {
	tr := NewTransport(Options{})
	err := tr.Set(context.Background(), "1.3.6.1.2.1.1.5.0", "Integer", "abc", func(models.ResultRow) {})
	require.ErrorIs(t, err, models.ErrValidation)
}

// A UDP "connect" only binds a local socket, so it works without an agent
func TestTransport_ConnectDisconnectUDP(t *testing.T) {
	tr := NewTransport(Options{})
	p := models.ConnectionProfile{Name: "loop", Target: "127.0.0.1", Port: 16161, Version: models.Version2c}

	require.NoError(t, tr.Connect(context.Background(), p))
	require.True(t, tr.Connected())
	require.False(t, tr.ConnectedAt().IsZero())

	require.NoError(t, tr.Disconnect(context.Background()))
	require.False(t, tr.Connected())
}
