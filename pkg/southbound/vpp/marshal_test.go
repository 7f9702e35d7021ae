package vpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.fd.io/govpp/binapi/ethernet_types"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

func TestParseMAC(t *testing.T) {
	tests := []struct {
		in      string
		want    ethernet_types.MacAddress
		wantErr bool
	}{
		{in: "aa:bb:cc:dd:ee:ff", want: ethernet_types.MacAddress{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}},
		{in: "02:FE:00:00:00:01", want: ethernet_types.MacAddress{0x02, 0xfe, 0, 0, 0, 0x01}},
		{in: "2:fe:0:0:0:1", wantErr: true},
		{in: "aa:bb:cc:dd:ee", wantErr: true},
		{in: "aa:bb:cc:dd:ee:ff:00", wantErr: true},
		{in: "aa:bb:cc:dd:ee:fg", wantErr: true},
		{in: "aa:bb:cc:dd:ee:100", wantErr: true},
		{in: "aa-bb-cc-dd-ee-ff", wantErr: true},
		{in: "aabb.ccdd.eeff", wantErr: true},
		{in: "aa:bb:cc:dd:ee:ff:00:11", wantErr: true},
		{in: "00:00:00:00:fe:80:00:00:00:00:00:00:02:00:5e:10:00:00:00:01", wantErr: true},
		{in: "aa:bb::dd:ee:ff", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMAC(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, southbound.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMACRoundTrip(t *testing.T) {
	mac, err := ParseMAC("52:54:00:AB:cd:0f")
	require.NoError(t, err)
	assert.Equal(t, "52:54:00:ab:cd:0f", MACString(mac))
}

func TestFixString(t *testing.T) {
	assert.Equal(t, "tap0", FixString("tap0\x00\x00\x00\x00"))
	assert.Equal(t, "tap0", FixString("tap0"))
	assert.Equal(t, "", FixString("\x00\x00"))
}
