package discovery

import (
	"context"
	"net"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startResponder(t *testing.T, info ServerInfo) int {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	r := NewResponder(NewResponderOptions{Info: func() ServerInfo { return info }})
	go func() { done <- r.Serve(ctx, conn) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestDiscover(t *testing.T) {
	want := ServerInfo{
		Name:       "steve's world",
		Host:       "steve",
		Port:       25565,
		Players:    2,
		MaxPlayers: 10,
		Version:    "v1.2.0",
		World:      "Sunny Hills",
	}
	port := startResponder(t, want)

	servers, err := Discover(context.Background(), DiscoverOptions{
		Port:        port,
		Timeout:     300 * time.Millisecond,
		Addresses:   []string{"127.0.0.1", "127.0.0.1"},
		NoBroadcast: true,
	})
	require.NoError(t, err)

	// both requests are answered but the server is only listed once
	require.Len(t, servers, 1)
	want.Address = "127.0.0.1"
	assert.Equal(t, want, servers[0])
}

func TestDiscover_noServers(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())

	servers, err := Discover(context.Background(), DiscoverOptions{
		Port:        port,
		Timeout:     100 * time.Millisecond,
		Addresses:   []string{"127.0.0.1"},
		NoBroadcast: true,
	})
	// a closed port may surface as a read error on some platforms
	if err == nil {
		assert.Empty(t, servers)
	}
}

func TestDiscover_releasesWatcher(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())

	before := runtime.NumGoroutine()
	for i := 0; i < 5; i++ {
		_, _ = Discover(context.Background(), DiscoverOptions{
			Port:        port,
			Timeout:     20 * time.Millisecond,
			Addresses:   []string{"127.0.0.1"},
			NoBroadcast: true,
		})
	}
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}

func TestResponder_ignoresOtherDatagrams(t *testing.T) {
	port := startResponder(t, ServerInfo{Name: "x"})

	conn, err := net.Dial("udp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("HELLO"))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, err = conn.Read(make([]byte, 64))
	assert.Error(t, err)
}
