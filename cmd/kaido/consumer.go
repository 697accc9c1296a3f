package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kaido-bot/kaido/automod/engine"
	"github.com/kaido-bot/kaido/util/cliutil"
	"github.com/kaido-bot/kaido/whatsapp"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"
)

// RunConsumer opens the session store, connects (pairing first if needed) and feeds inbound messages to the engine until `ctx` is cancelled or the session is logged out.
func (s *Server) RunConsumer(ctx context.Context) error {
	db, err := cliutil.SetupSessionDB(s.sessionDB)
	if err != nil {
		return fmt.Errorf("opening session database: %w", err)
	}
	defer db.Close()

	device, err := whatsapp.OpenDevice(db, s.logger)
	if err != nil {
		return err
	}
	wa := whatsmeow.NewClient(device, whatsapp.NewLogger(s.logger, "Client"))
	client := whatsapp.NewClient(wa, s.logger)
	s.engine.Transport = client
	s.engine.Media = client

	fatal := make(chan error, 1)
	wa.AddEventHandler(func(raw interface{}) {
		switch evt := raw.(type) {
		case *events.Message:
			s.handleMessage(ctx, client, evt)
		case *events.Connected:
			sessionEvents.WithLabelValues("connected").Inc()
			connected.Set(1)
			s.logger.Info("connected to chat network", "self", client.SelfID())
			go s.sendGreeting(ctx, client)
		case *events.Disconnected:
			sessionEvents.WithLabelValues("disconnected").Inc()
			connected.Set(0)
			s.logger.Warn("disconnected from chat network")
		case *events.LoggedOut:
			sessionEvents.WithLabelValues("logged_out").Inc()
			connected.Set(0)
			select {
			case fatal <- fmt.Errorf("%w (reason %v)", whatsapp.ErrLoggedOut, evt.Reason):
			default:
			}
		}
	})

	if wa.Store.ID == nil {
		if err := s.pair(ctx, wa); err != nil {
			return err
		}
	} else {
		if err := wa.Connect(); err != nil {
			return fmt.Errorf("connecting to chat network: %w", err)
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
	case runErr = <-fatal:
		s.logger.Error("session terminated", "err", runErr)
	}

	wa.Disconnect()
	s.engine.Wait()
	return runErr
}

// pair links a fresh session to the configured phone number, printing the pairing code to enter on the phone.
func (s *Server) pair(ctx context.Context, wa *whatsmeow.Client) error {
	phone := strings.TrimPrefix(strings.TrimSpace(s.pairPhone), "+")
	if phone == "" {
		return fmt.Errorf("no stored session: a phone number to pair with is required (--phone)")
	}
	qrChan, err := wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("preparing pairing: %w", err)
	}
	if err := wa.Connect(); err != nil {
		return fmt.Errorf("connecting to chat network: %w", err)
	}
	// the websocket must be ready (first QR event) before a phone pairing code can be requested
	for item := range qrChan {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			code, err := wa.PairPhone(phone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
			if err != nil {
				return fmt.Errorf("requesting pairing code: %w", err)
			}
			fmt.Printf("pairing code for %s: %s\n", phone, code)
			s.logger.Info("waiting for pairing code to be entered on the phone", "phone", phone)
			go func() {
				for item := range qrChan {
					s.logger.Debug("pairing channel event", "event", item.Event)
				}
			}()
			return nil
		case whatsmeow.QRChannelEventError:
			return fmt.Errorf("pairing failed: %w", item.Error)
		default:
			if item.Event != "success" {
				return fmt.Errorf("pairing failed: %s", item.Event)
			}
			return nil
		}
	}
	return nil
}

func (s *Server) handleMessage(ctx context.Context, client *whatsapp.Client, raw *events.Message) {
	client.Remember(raw.Info.Chat.String(), raw.Info.ID, raw.Message)
	evt := whatsapp.ConvertMessage(raw)
	if !evt.HasPayload() {
		return
	}
	chat := "direct"
	if raw.Info.IsGroup {
		chat = "group"
	}
	messagesReceived.WithLabelValues(chat).Inc()
	// the engine opens the event span inside the dispatched task
	s.engine.Dispatch(ctx, evt)
}

func (s *Server) sendGreeting(ctx context.Context, client *whatsapp.Client) {
	self := client.SelfID()
	if self == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	out := engine.OutgoingText{Text: engine.ConnectedText(s.engine.Mode.Get())}
	if err := client.SendText(ctx, self, out); err != nil {
		s.logger.Warn("failed to send connection greeting", "err", err)
	}
}
