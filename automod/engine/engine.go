package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kaido-bot/kaido/automod/countstore"
	"github.com/kaido-bot/kaido/automod/event"
	"github.com/kaido-bot/kaido/automod/flagstore"
	"github.com/kaido-bot/kaido/automod/identity"
	"github.com/kaido-bot/kaido/automod/macrostore"
	"github.com/kaido-bot/kaido/automod/setstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "automod"

type Config struct {
	// delay before a temporary success reaction is cleared, in groups and direct chats respectively
	ReactionClearGroup  time.Duration
	ReactionClearDirect time.Duration
	// optional image sent along with the menu text
	MenuImage []byte
}

func DefaultConfig() Config {
	return Config{
		ReactionClearGroup:  5 * time.Second,
		ReactionClearDirect: 3 * time.Second,
	}
}

// runtime for classifying inbound messages, enforcing group policy, and dispatching commands.
//
// All state is injected and in-process. Several pointer and interface fields must not be nil: Owner, Mode, Macros, Transport. Media and Prices are optional; the commands which need them reply with a failure notice when they are missing.
type Engine struct {
	Logger *slog.Logger
	Owner  *identity.OwnerConfig
	Mode   *ModeSwitch
	// warning counters, per (group, participant)
	Warnings countstore.CountStore
	// per-group policy flags (antilink)
	Policies flagstore.FlagStore
	// locked-groups marker and block lists
	Sets      setstore.SetStore
	Macros    *macrostore.Registry
	Transport Transport
	Media     Media
	Prices    PriceLookup
	Config    Config

	// tracks in-flight event tasks and delayed reaction clears
	tasks sync.WaitGroup
}

// Dispatch processes an event in a new goroutine and returns immediately. There is no ordering guarantee between events.
func (eng *Engine) Dispatch(ctx context.Context, evt *event.MessageEvent) {
	eng.tasks.Add(1)
	go func() {
		defer eng.tasks.Done()
		err := eng.ProcessMessage(ctx, evt)
		if err == nil {
			return
		}
		if isUserError(err) {
			eng.Logger.Debug("message not actioned", "reason", err, "chat", evt.Ref.Chat, "msg", evt.Ref.ID)
		} else {
			eng.Logger.Warn("failed to process message", "err", err, "chat", evt.Ref.Chat, "msg", evt.Ref.ID)
		}
	}()
}

// Wait blocks until all dispatched events, and any delayed follow-up actions they scheduled, have completed.
func (eng *Engine) Wait() {
	eng.tasks.Wait()
}

// ProcessMessage runs the full decision pipeline for a single inbound message, synchronously.
//
// Returned errors describe why a message was not actioned (see errors.go); user-visible notices have already been sent by the time it returns.
func (eng *Engine) ProcessMessage(ctx context.Context, evt *event.MessageEvent) (err error) {
	// similar to an HTTP server, we want to recover any panics from handler execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod event execution exception", "err", r, "chat", evt.Ref.Chat, "msg", evt.Ref.ID)
			eventErrorCount.WithLabelValues("panic").Inc()
			err = fmt.Errorf("panic processing message: %v", r)
		}
	}()

	if !evt.HasPayload() {
		return nil
	}

	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ProcessMessage", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	c, err := eng.newMessageContext(ctx, evt, start)
	if err != nil {
		eventErrorCount.WithLabelValues("classify").Inc()
		return fmt.Errorf("classifying message: %w", err)
	}
	span.SetAttributes(
		attribute.Bool("group", c.IsGroup),
		attribute.Bool("owner", c.IsOwner),
		attribute.String("kind", evt.Kind.String()),
	)
	eventProcessCount.WithLabelValues(c.contextLabel()).Inc()
	defer func() {
		eventProcessDuration.WithLabelValues(c.contextLabel()).Observe(time.Since(start).Seconds())
		if err != nil && !isUserError(err) {
			eventErrorCount.WithLabelValues(errorKind(err)).Inc()
		}
	}()

	if c.IsGroup {
		stop, aerr := eng.enforceAntilink(c)
		if stop || aerr != nil {
			return aerr
		}
	}

	if evt.IsSticker() && strings.TrimSpace(evt.Text) == "" {
		return eng.replayMacro(c)
	}

	name, args, ok := ParseCommand(evt.Text)
	if !ok {
		return nil
	}
	span.SetAttributes(attribute.String("command", name))
	c.Logger = c.Logger.With("command", name)
	c.Logger.Info("command detected", "owner", c.IsOwner, "admin", c.IsGroupAdmin, "mode", eng.Mode.Get())
	return eng.dispatchCommand(c, name, args)
}

// ParseCommand extracts the command token (lower-cased, without prefix) and whitespace-separated arguments.
func ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, CommandPrefix) {
		return "", nil, false
	}
	fields := strings.Fields(text)
	name := strings.ToLower(strings.TrimPrefix(fields[0], CommandPrefix))
	if name == "" {
		return "", nil, false
	}
	args := fields[1:]
	// "get pp" is the only two-word command
	if name == "get" && len(args) > 0 && strings.ToLower(args[0]) == "pp" {
		name = "get pp"
		args = args[1:]
	}
	return name, args, true
}

// schedules a reaction clear on the triggering message, without blocking the handler
func (eng *Engine) clearReactionLater(ref event.MessageRef, delay time.Duration, logger *slog.Logger) {
	eng.tasks.Add(1)
	time.AfterFunc(delay, func() {
		defer eng.tasks.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := eng.Transport.SendReaction(ctx, ref, ""); err != nil {
			logger.Error("error removing reaction", "err", err)
		}
	})
}
