// Package command maps a transcription to a canned reply. Text that matches
// no command yields no reply, and the caller falls back to a Responder.
package command

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/browser"
)

// Opener opens a URL for the user.
type Opener func(url string) error

// Handler produces the reply for a matched command. match holds the full
// match followed by the pattern's capture groups.
type Handler func(ctx context.Context, c *Classifier, match []string) string

// Command is one row of the command table.
type Command struct {
	Name    string
	Pattern *regexp.Regexp
	Handle  Handler
}

// DefaultCommands is the built-in table, evaluated in order.
var DefaultCommands = []Command{
	{
		Name:    "open_website",
		Pattern: regexp.MustCompile(`\bopen (youtube|github|google)\b`),
		Handle: func(ctx context.Context, c *Classifier, m []string) string {
			site := m[1]
			c.open("https://" + site + ".com")
			return "Opening " + strings.ToUpper(site[:1]) + site[1:]
		},
	},
	{
		Name:    "search_google",
		Pattern: regexp.MustCompile(`\bsearch for (.+)`),
		Handle: func(ctx context.Context, c *Classifier, m []string) string {
			query := strings.TrimSpace(m[1])
			c.open("https://www.google.com/search?q=" + url.QueryEscape(query))
			return "Searching Google for '" + query + "'"
		},
	},
	{
		Name:    "tell_time",
		Pattern: regexp.MustCompile(`\b(what time is it|tell me the time|the time please|time\??|current time|give me the time|show me the time)\b`),
		Handle: func(ctx context.Context, c *Classifier, m []string) string {
			return "The time is " + c.now().Format("03:04 PM")
		},
	},
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithOpener replaces the system browser.
func WithOpener(open Opener) Option {
	return func(c *Classifier) { c.opener = open }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.clock = now }
}

// WithCommands replaces the command table.
func WithCommands(cmds []Command) Option {
	return func(c *Classifier) { c.commands = cmds }
}

// Classifier matches lowercase text against a command table; first match wins.
type Classifier struct {
	commands []Command
	opener   Opener
	clock    func() time.Time
}

// New creates a Classifier over DefaultCommands.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		commands: DefaultCommands,
		opener:   browser.OpenURL,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the canned reply for text, or ok=false when nothing matches.
func (c *Classifier) Classify(ctx context.Context, text string) (reply string, ok bool) {
	lc := strings.ToLower(text)
	for _, cmd := range c.commands {
		m := cmd.Pattern.FindStringSubmatch(lc)
		if m == nil {
			continue
		}
		log.Printf("[Command] Matched %s", cmd.Name)
		return cmd.Handle(ctx, c, m), true
	}
	return "", false
}

// Match reports which command text would trigger without running it.
func (c *Classifier) Match(text string) (name string, ok bool) {
	lc := strings.ToLower(text)
	for _, cmd := range c.commands {
		if cmd.Pattern.MatchString(lc) {
			return cmd.Name, true
		}
	}
	return "", false
}

func (c *Classifier) open(u string) {
	if err := c.opener(u); err != nil {
		log.Printf("[Command] Failed to open %s: %v", u, err)
	}
}

func (c *Classifier) now() time.Time {
	return c.clock()
}
