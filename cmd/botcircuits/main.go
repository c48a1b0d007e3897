// Command botcircuits is an interactive chat with a BotCircuits bot: each
// line typed is sent as a user turn and bot replies are printed as they
// arrive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"

	botcircuits "github.com/botcircuits/botcircuits-go-sdk"
	"github.com/botcircuits/botcircuits-go-sdk/internal/config"
	"github.com/botcircuits/botcircuits-go-sdk/internal/logging"
)

const subscribeTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "botcircuits: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	sessionID := flag.String("session", "", "session id (random when empty)")
	attrs := attributes{}
	flag.Var(attrs, "attr", "request attribute as key=value (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *sessionID != "" {
		cfg.SessionID = *sessionID
	}

	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: rl.Stderr(),
	})

	client, err := botcircuits.New(cfg.ClientConfig(logger), cfg.SessionID)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := rl.Stdout()
	if err := client.Start(func(_ context.Context, msg botcircuits.Message) error {
		printMessage(out, msg)
		return nil
	}); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, subscribeTimeout)
	err = client.WaitSubscribed(waitCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	fmt.Fprintf(out, "session %s connected, /quit to leave\n", client.SessionID())

	go func() {
		<-client.Done()
		if err := client.Err(); err != nil {
			fmt.Fprintf(out, "subscription lost: %v\n", err)
		}
	}()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}
		if err := client.Send(ctx, botcircuits.Request{Text: line, Attributes: attrs.values()}); err != nil {
			fmt.Fprintf(out, "send failed: %v\n", err)
		}
	}
}

func printMessage(w io.Writer, msg botcircuits.Message) {
	if text, ok := msg.Text(); ok {
		fmt.Fprintf(w, "bot> %s\n", text)
		return
	}
	fmt.Fprintf(w, "bot> [%s] %s\n", msg.Type, string(msg.Content))
}

// attributes collects repeated -attr key=value flags.
type attributes map[string]string

func (a attributes) String() string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+a[k])
	}
	return strings.Join(parts, ",")
}

func (a attributes) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("attribute %q: want key=value", raw)
	}
	a[key] = value
	return nil
}

func (a attributes) values() map[string]any {
	if len(a) == 0 {
		return nil
	}
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
