package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/livehost/video"
)

// controller is the part of the host the console drives.
type controller interface {
	Filter() video.Config
	SetFilter(video.Config)
	SendChat(ctx context.Context, user, text string) error
	ShareURL() string
}

// console reads operator lines. Lines starting with "/" are commands;
// everything else is sent as chat.
type console struct {
	host   controller
	user   string
	out    io.Writer
	logger *logrus.Entry
}

const consoleHelp = `commands:
  /filter <kind> [strength]   anime avatar beautify pixelate gray invert sepia vignette none
  /strength <0-100>
  /bg <kind>                  origin gray pixel blur grad
  /mask on|off
  /share                      print the viewer link
  /quit
anything else is sent as chat`

// run processes lines until ctx is done or /quit is entered. When in
// ends, run keeps waiting for ctx.
func (c *console) run(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if !c.handle(ctx, line) {
				return
			}
		}
	}
}

// handle executes one line and reports whether to keep reading.
func (c *console) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, "/") {
		if err := c.host.SendChat(ctx, c.user, line); err != nil {
			fmt.Fprintf(c.out, "chat not sent: %v\n", err)
		}
		return true
	}

	fields := strings.Fields(line)
	cfg := c.host.Filter()
	switch fields[0] {
	case "/quit":
		return false
	case "/help":
		fmt.Fprintln(c.out, consoleHelp)
		return true
	case "/share":
		fmt.Fprintln(c.out, c.host.ShareURL())
		return true
	case "/filter":
		if len(fields) < 2 {
			fmt.Fprintln(c.out, "usage: /filter <kind> [strength]")
			return true
		}
		kind, err := video.ParseFilterKind(fields[1])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return true
		}
		cfg.Filter = kind
		if len(fields) > 2 {
			s, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Fprintf(c.out, "bad strength %q\n", fields[2])
				return true
			}
			cfg.Strength = s
		}
	case "/strength":
		if len(fields) < 2 {
			fmt.Fprintln(c.out, "usage: /strength <0-100>")
			return true
		}
		s, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(c.out, "bad strength %q\n", fields[1])
			return true
		}
		cfg.Strength = s
	case "/bg":
		if len(fields) < 2 {
			fmt.Fprintln(c.out, "usage: /bg <kind>")
			return true
		}
		kind, err := video.ParseBackgroundKind(fields[1])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return true
		}
		cfg.Background = kind
	case "/mask":
		if len(fields) < 2 || (fields[1] != "on" && fields[1] != "off") {
			fmt.Fprintln(c.out, "usage: /mask on|off")
			return true
		}
		cfg.MaskEnabled = fields[1] == "on"
	default:
		fmt.Fprintf(c.out, "unknown command %s, try /help\n", fields[0])
		return true
	}

	c.host.SetFilter(cfg)
	c.logger.WithFields(logrus.Fields{
		"function": "console.handle",
		"command":  fields[0],
	}).Debug("Filter changed from console")
	return true
}
