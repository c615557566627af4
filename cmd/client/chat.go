package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cbodonnell/orderstone/pkg/chat"
	clientnetwork "github.com/cbodonnell/orderstone/pkg/client/network"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/queue"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const drainInterval = 50 * time.Millisecond

var (
	flagChatAddr      string
	flagChatName      string
	flagChatCharacter string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Join a server and chat from the terminal",
	Long: `Join a server and chat from the terminal.

Every line typed is sent as chat. Slash commands such as /help, /global
and /msg are handled by the server. Press Ctrl+C or Ctrl+D to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&flagChatAddr, "addr", net.JoinHostPort(clientnetwork.DefaultServerHostname, strconv.Itoa(clientnetwork.DefaultServerTCPPort)), "Server TCP address (host:port)")
	chatCmd.Flags().StringVar(&flagChatName, "name", "", "Username to join as")
	chatCmd.Flags().StringVar(&flagChatCharacter, "character", "", "Character skin to select")
	_ = chatCmd.MarkFlagRequired("name")
}

func runChat(cmd *cobra.Command, _ []string) error {
	host, portStr, err := net.SplitHostPort(flagChatAddr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %v", flagChatAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q: %v", portStr, err)
	}

	messageQueue := queue.NewInMemoryQueue(1024)
	networkManager := clientnetwork.NewNetworkManager(clientnetwork.NewNetworkManagerOptions{
		ServerHostname: host,
		TCPPort:        port,
		MessageQueue:   messageQueue,
	})
	defer networkManager.Close()

	welcome, err := networkManager.Join(cmd.Context(), flagChatName, flagChatCharacter)
	if err != nil {
		return err
	}
	fmt.Printf("Joined %q as %s (%s), %d other player(s) online\n", welcome.World.Name, flagChatName, welcome.Permission, len(welcome.Players))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return networkManager.Run(ctx)
	})
	g.Go(func() error {
		return printMessages(ctx, messageQueue)
	})
	go func() {
		// stdin cannot be interrupted, so this reader is not part of the group
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := networkManager.SendChat(line); err != nil {
				log.Error("Failed to send chat: %v", err)
			}
		}
		cancel()
	}()
	return g.Wait()
}

func printMessages(ctx context.Context, messageQueue queue.Queue) error {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			items, err := messageQueue.ReadAllMessages()
			if err != nil {
				return fmt.Errorf("failed to read messages: %v", err)
			}
			for _, item := range items {
				msg, ok := item.(*messages.Message)
				if !ok {
					continue
				}
				if line := formatMessage(msg); line != "" {
					fmt.Println(line)
				}
			}
		}
	}
}

// formatMessage renders the messages a chat client cares about.
func formatMessage(msg *messages.Message) string {
	switch msg.Type {
	case messages.MessageTypeServerChat:
		serverChat := &messages.ServerChat{}
		if err := msg.DecodePayload(serverChat); err != nil {
			return ""
		}
		return formatChat(serverChat.Message)
	case messages.MessageTypeServerPlayerJoined:
		joined := &messages.ServerPlayerJoined{}
		if err := msg.DecodePayload(joined); err != nil {
			return ""
		}
		return fmt.Sprintf("* %s joined", joined.Player.Username)
	case messages.MessageTypeServerPlayerLeft:
		left := &messages.ServerPlayerLeft{}
		if err := msg.DecodePayload(left); err != nil {
			return ""
		}
		return fmt.Sprintf("* %s left", left.Username)
	case messages.MessageTypeServerError:
		serverError := &messages.ServerError{}
		if err := msg.DecodePayload(serverError); err != nil {
			return ""
		}
		return "! " + serverError.Message
	default:
		return ""
	}
}

func formatChat(m chat.Message) string {
	stamp := m.Timestamp.Local().Format(time.TimeOnly)
	switch {
	case m.Kind == chat.KindPrivate:
		return fmt.Sprintf("[%s] %s -> %s: %s", stamp, m.From, m.To, m.Text)
	case m.From == "":
		return fmt.Sprintf("[%s] * %s", stamp, m.Text)
	case m.Channel == chat.ChannelGlobal:
		return fmt.Sprintf("[%s] [global] <%s> %s", stamp, m.From, m.Text)
	default:
		return fmt.Sprintf("[%s] <%s> %s", stamp, m.From, m.Text)
	}
}
