package game

import (
	"fmt"

	"github.com/cbodonnell/orderstone/pkg/chat"
	"github.com/cbodonnell/orderstone/pkg/economy"
	"github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/log"
	"github.com/cbodonnell/orderstone/pkg/messages"
	"github.com/cbodonnell/orderstone/pkg/permissions"
	"github.com/cbodonnell/orderstone/pkg/saves"
)

func (gm *GameManager) handleChat(p *types.PlayerState, clientChat *messages.ClientChat) {
	if !gm.chatLimiter.Allow(p.Username) {
		gm.sendChat(p.ClientID, chat.System(chat.KindError, "You are sending messages too quickly", gm.now))
		return
	}
	text, err := chat.Sanitize(clientChat.Text)
	if err != nil {
		return
	}

	cmd, err := chat.ParseCommand(text)
	if err != nil {
		gm.sendChat(p.ClientID, chat.System(chat.KindError, err.Error(), gm.now))
		return
	}

	switch cmd.Name {
	case chat.CommandNone:
		channel := chat.ResolveChannel(clientChat.Channel, p.Permission)
		if channel == chat.ChannelPrivate {
			channel = chat.ChannelWorld
		}
		gm.publishChat(chat.NewMessage(chat.KindPlayer, channel, p.Username, text, gm.now))
	case chat.CommandGlobal:
		channel := chat.ResolveChannel(chat.ChannelGlobal, p.Permission)
		gm.publishChat(chat.NewMessage(chat.KindPlayer, channel, p.Username, cmd.Arg, gm.now))
	case chat.CommandMsg:
		target, ok := gm.gameState.PlayerByName(cmd.Target)
		if !ok {
			gm.sendChat(p.ClientID, chat.System(chat.KindError, fmt.Sprintf("%s is not online", cmd.Target), gm.now))
			return
		}
		m := chat.NewMessage(chat.KindPrivate, chat.ChannelPrivate, p.Username, cmd.Arg, gm.now)
		m.To = target.Username
		gm.sendChat(target.ClientID, m)
		if target.ClientID != p.ClientID {
			gm.sendChat(p.ClientID, m)
		}
		gm.recordChat(m)
	case chat.CommandTime:
		if !p.Permission.Has(permissions.Admin) {
			gm.sendChat(p.ClientID, chat.System(chat.KindError, "Only admins can change the time", gm.now))
			return
		}
		gm.setDay(cmd.Arg == "day")
		gm.sendTimeSync()
		gm.publishChat(chat.System(chat.KindSuccess, fmt.Sprintf("%s set the time to %s", p.Username, cmd.Arg), gm.now))
	case chat.CommandWeather:
		if !p.Permission.Has(permissions.Admin) {
			gm.sendChat(p.ClientID, chat.System(chat.KindError, "Only admins can change the weather", gm.now))
			return
		}
		gm.gameState.Time.Weather = saves.WeatherClear
		if cmd.Arg == saves.WeatherRain {
			gm.gameState.Time.Weather = saves.WeatherRain
		}
		gm.sendTimeSync()
		gm.publishChat(chat.System(chat.KindSuccess, fmt.Sprintf("%s set the weather to %s", p.Username, cmd.Arg), gm.now))
	case chat.CommandCoins:
		gm.sendToClient(p.ClientID, messages.MessageTypeServerCoins, CoinsFromState(p))
		gm.sendChat(p.ClientID, chat.System(chat.KindSuccess, fmt.Sprintf("You have %s coins", economy.FormatCoins(p.Wallet.Coins)), gm.now))
	case chat.CommandHelp:
		gm.sendChat(p.ClientID, chat.System(chat.KindSystem, chat.HelpText, gm.now))
	default:
		log.Warn("Unhandled chat command %q", cmd.Name)
	}
}

// publishChat shows a message to everyone, keeps it in the history and records it.
func (gm *GameManager) publishChat(m *chat.Message) {
	gm.gameState.Chat.Add(m)
	gm.sendToAll(messages.MessageTypeServerChat, messages.ServerChat{Message: *m})
	gm.recordChat(m)
}

func (gm *GameManager) sendChat(clientID uint32, m *chat.Message) {
	gm.sendToClient(clientID, messages.MessageTypeServerChat, messages.ServerChat{Message: *m})
}

func (gm *GameManager) recordChat(m *chat.Message) {
	if gm.chatRecordChan == nil {
		return
	}
	select {
	case gm.chatRecordChan <- ChatRecordFromMessage(gm.gameState.WorldID.String(), m):
	default:
		log.Warn("Dropped chat record: channel is full")
	}
}
