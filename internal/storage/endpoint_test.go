package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Endpoint
		wantErr error
	}{
		{"remote host", "remote:localhost", Endpoint{Kind: EndpointRemote, Host: "localhost"}, nil},
		{"remote host port", "remote:db.internal:5433", Endpoint{Kind: EndpointRemote, Host: "db.internal", Port: 5433}, nil},
		{"remote ipv6", "remote:[::1]:3306", Endpoint{Kind: EndpointRemote, Host: "::1", Port: 3306}, nil},
		{"remote ipv6 without port", "remote:[::1]", Endpoint{Kind: EndpointRemote, Host: "::1"}, nil},
		{"empty brackets", "remote:[]", Endpoint{}, ErrInvalidEndpoint},
		{"embedded", "embedded:/tmp/probe", Endpoint{Kind: EndpointEmbedded, Path: "/tmp/probe"}, nil},
		{"memory", "memory:probe", Endpoint{}, ErrUnsupportedEndpoint},
		{"bare host", "localhost", Endpoint{}, ErrUnsupportedEndpoint},
		{"empty remote", "remote:", Endpoint{}, ErrInvalidEndpoint},
		{"empty embedded", "embedded:", Endpoint{}, ErrInvalidEndpoint},
		{"bad port", "remote:localhost:http", Endpoint{}, ErrInvalidEndpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpoint(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndpointString(t *testing.T) {
	assert.Equal(t, "remote:localhost", Endpoint{Kind: EndpointRemote, Host: "localhost"}.String())
	assert.Equal(t, "remote:db:5432", Endpoint{Kind: EndpointRemote, Host: "db", Port: 5432}.String())
	assert.Equal(t, "embedded:/data", Endpoint{Kind: EndpointEmbedded, Path: "/data"}.String())
	assert.Equal(t, "remote:[::1]", Endpoint{Kind: EndpointRemote, Host: "::1"}.String())
}

func TestIPv6EndpointDSN(t *testing.T) {
	ep, err := ParseEndpoint("remote:[::1]")
	require.NoError(t, err)

	dsn, err := (&PostgresDialect{}).BuildDSN(ep, Config{Database: "probe", User: "root"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "host=::1 port=5432")
	assert.NotContains(t, dsn, "[")

	again, err := ParseEndpoint(ep.String())
	require.NoError(t, err)
	assert.Equal(t, ep, again)
}
