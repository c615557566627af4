package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/cbodonnell/orderstone/pkg/log"
)

const (
	// Request is the datagram a client broadcasts to find servers.
	Request = "DISCOVER_SERVER"

	DefaultPort    = 25566
	DefaultTimeout = 2 * time.Second

	maxDatagramSize = 1024
)

// ServerInfo is the reply sent to a discovery request.
type ServerInfo struct {
	Name       string `json:"name"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	Version    string `json:"version"`
	World      string `json:"world"`
	// Address is the IP the reply came from, filled in by Discover.
	Address string `json:"address,omitempty"`
}

// InfoFunc reports the current server info for each reply.
type InfoFunc func() ServerInfo

// Responder answers discovery requests on a UDP port.
type Responder struct {
	port int
	info InfoFunc
}

type NewResponderOptions struct {
	Port int
	Info InfoFunc
}

func NewResponder(opts NewResponderOptions) *Responder {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	return &Responder{
		port: opts.Port,
		info: opts.Info,
	}
}

// Start listens on the discovery port and blocks until ctx is cancelled.
func (r *Responder) Start(ctx context.Context) error {
	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", r.port))
	if err != nil {
		return fmt.Errorf("failed to listen on discovery port: %v", err)
	}
	log.Info("Discovery responder listening on %s", conn.LocalAddr().String())
	return r.Serve(ctx, conn)
}

// Serve answers requests on conn until ctx is cancelled. It closes conn.
func (r *Responder) Serve(ctx context.Context, conn net.PacketConn) error {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info("Discovery responder closed")
				return nil
			}
			log.Error("Failed to read discovery request: %v", err)
			continue
		}
		if string(buf[:n]) != Request {
			log.Trace("Ignoring datagram from %s", addr.String())
			continue
		}

		b, err := json.Marshal(r.info())
		if err != nil {
			log.Error("Failed to marshal server info: %v", err)
			continue
		}
		if _, err := conn.WriteTo(b, addr); err != nil {
			log.Error("Failed to reply to discovery request from %s: %v", addr.String(), err)
			continue
		}
		log.Debug("Responded to discovery request from %s", addr.String())
	}
}

type DiscoverOptions struct {
	// Port is the discovery port of the servers, DefaultPort when zero.
	Port    int
	Timeout time.Duration
	// Addresses are extra hosts to ask directly, e.g. across subnets.
	Addresses []string
	// NoBroadcast skips the 255.255.255.255 broadcast.
	NoBroadcast bool
}

// Discover asks the LAN for servers and collects distinct replies until the
// timeout or ctx expires. Servers are keyed by address and game port.
func Discover(ctx context.Context, opts DiscoverOptions) ([]ServerInfo, error) {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("failed to open discovery socket: %v", err)
	}
	defer conn.Close()

	targets := append([]string(nil), opts.Addresses...)
	if !opts.NoBroadcast {
		targets = append(targets, net.IPv4bcast.String())
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no discovery targets")
	}

	sent := 0
	for _, host := range targets {
		addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(opts.Port)))
		if err != nil {
			log.Warn("Skipping discovery target %s: %v", host, err)
			continue
		}
		if _, err := conn.WriteToUDP([]byte(Request), addr); err != nil {
			log.Warn("Failed to send discovery request to %s: %v", addr.String(), err)
			continue
		}
		sent++
	}
	if sent == 0 {
		return nil, fmt.Errorf("failed to send any discovery request")
	}

	deadline := time.Now().Add(opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %v", err)
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	seen := make(map[string]struct{})
	var servers []ServerInfo
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				break
			}
			return servers, fmt.Errorf("failed to read discovery reply: %v", err)
		}

		info := ServerInfo{}
		if err := json.Unmarshal(buf[:n], &info); err != nil {
			log.Debug("Ignoring malformed discovery reply from %s: %v", addr.String(), err)
			continue
		}
		info.Address = addr.IP.String()
		key := net.JoinHostPort(info.Address, strconv.Itoa(info.Port))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		servers = append(servers, info)
	}

	sort.Slice(servers, func(i, j int) bool {
		if servers[i].Address != servers[j].Address {
			return servers[i].Address < servers[j].Address
		}
		return servers[i].Port < servers[j].Port
	})
	return servers, nil
}
