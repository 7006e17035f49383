// Package client is a terminal front end for the high-low card game.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/calvinwijaya/highlow-game-be/internal/game"
	"github.com/calvinwijaya/highlow-game-be/internal/protocol"
)

// Client plays one seat of the game: it joins under its name, shows every
// server message and asks the user for a guess at the start of each round.
type Client struct {
	name      string
	transport Transport
	shell     *Shell
	logger    *slog.Logger
}

func New(name string, t Transport, shell *Shell, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{name: name, transport: t, shell: shell, logger: logger}
}

// Run plays until ctx is done, the input ends or the connection drops.
// It closes the transport before returning.
func (c *Client) Run(ctx context.Context) error {
	defer c.transport.Close()

	if err := c.send(protocol.JoinGameRequest{PlayerName: c.name}); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)

	incoming := make(chan protocol.Message, 64)
	readErr := make(chan error, 1)
	go c.readLoop(done, incoming, readErr)

	ask := make(chan struct{}, 1)
	guesses := make(chan game.Guess)
	inputErr := make(chan error, 1)
	go c.inputLoop(done, ask, guesses, inputErr)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return fmt.Errorf("connection lost: %w", err)
		case err := <-inputErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case m := <-incoming:
			if c.shell.Show(m) {
				select {
				case ask <- struct{}{}:
				default:
				}
			}
		case g := <-guesses:
			if err := c.send(protocol.GuessRequest{PlayerName: c.name, Guess: string(g)}); err != nil {
				return err
			}
			c.logger.Debug("guess sent", "guess", g)
		}
	}
}

func (c *Client) send(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	if err := c.transport.Send(data); err != nil {
		return fmt.Errorf("send %s: %w", m.MessageType(), err)
	}
	return nil
}

func (c *Client) readLoop(done <-chan struct{}, incoming chan<- protocol.Message, errc chan<- error) {
	for {
		batch, err := c.transport.Receive()
		if err != nil {
			errc <- err
			return
		}
		for _, data := range batch {
			m, err := protocol.Decode(data)
			if err != nil {
				c.logger.Warn("dropping server message", "error", err)
				continue
			}
			select {
			case incoming <- m:
			case <-done:
				return
			}
		}
	}
}

func (c *Client) inputLoop(done <-chan struct{}, ask <-chan struct{}, guesses chan<- game.Guess, errc chan<- error) {
	for {
		select {
		case <-ask:
		case <-done:
			return
		}
		g, err := c.shell.ReadGuess()
		if err != nil {
			errc <- err
			return
		}
		select {
		case guesses <- g:
		case <-done:
			return
		}
	}
}
