package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPIsLocal(t *testing.T) {
	cases := []struct {
		addr            string
		expectedIsLocal bool
	}{
		{addr: "83.12.53.65:2145", expectedIsLocal: false},
		{addr: "127.23.0.1:35325", expectedIsLocal: false},
		{addr: "172.20.0.1:60102", expectedIsLocal: true},
		{addr: "172.20.0.1:60096", expectedIsLocal: true},
		{addr: "172.200.0.1:60096", expectedIsLocal: true},
		{addr: "172.19.0.1:42452", expectedIsLocal: true},
		{addr: "172.0.0.1:42452", expectedIsLocal: true},
		{addr: "83.12.53.65:214", expectedIsLocal: false},
		{addr: "172.19.0.1:42452", expectedIsLocal: true},
		{addr: "172.0.0.1:352345", expectedIsLocal: true},
		{addr: "111.12.56.65:8080", expectedIsLocal: false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expectedIsLocal, IPIsLocal(tc.addr))
	}
}

func TestReadUserIP(t *testing.T) {
	cases := []struct {
		name        string
		remoteAddr  string
		realIP      string
		forwarded   string
		expectedIP  string
		expectedErr bool
	}{
		{name: "RemoteAddrWithPort", remoteAddr: "83.12.53.65:2145", expectedIP: "83.12.53.65"},
		{name: "RealIPHeader", remoteAddr: "83.12.53.65:2145", realIP: "111.12.56.65", expectedIP: "111.12.56.65"},
		{name: "ForwardedChain", remoteAddr: "83.12.53.65:2145", forwarded: "111.12.56.65, 10.0.0.1", expectedIP: "111.12.56.65"},
		{name: "IPv6", remoteAddr: "[2001:db8::1]:443", expectedIP: "2001:db8::1"},
		{name: "Local", remoteAddr: "127.0.0.1:5000", expectedIP: "localhost"},
		{name: "Invalid", remoteAddr: "not-an-ip", expectedErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.realIP != "" {
				req.Header.Set("X-Real-Ip", tc.realIP)
			}
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			ip, err := ReadUserIP(req)
			if tc.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedIP, ip)
		})
	}
}
