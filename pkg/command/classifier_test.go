package command

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClassifier(opened *[]string) *Classifier {
	return New(
		WithOpener(func(u string) error {
			*opened = append(*opened, u)
			return nil
		}),
		WithClock(func() time.Time {
			return time.Date(2024, 5, 1, 15, 4, 0, 0, time.UTC)
		}),
	)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reply  string
		ok     bool
		opened string
	}{
		{"open youtube", "Open YouTube please", "Opening Youtube", true, "https://youtube.com"},
		{"open github", "could you open github", "Opening Github", true, "https://github.com"},
		{"open google", "open google", "Opening Google", true, "https://google.com"},
		{"search", "Search for golang channels", "Searching Google for 'golang channels'", true, "https://www.google.com/search?q=golang+channels"},
		{"what time", "What time is it?", "The time is 03:04 PM", true, ""},
		{"time question", "time?", "The time is 03:04 PM", true, ""},
		{"current time", "tell me the current time", "The time is 03:04 PM", true, ""},
		{"unmatched", "how tall is mount everest", "", false, ""},
		{"open unknown site", "open facebook", "", false, ""},
		{"word boundary", "reopen youtubers", "", false, ""},
		{"empty", "", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened []string
			c := newTestClassifier(&opened)

			reply, ok := c.Classify(context.Background(), tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reply, reply)
			if tt.opened == "" {
				assert.Empty(t, opened)
			} else {
				assert.Equal(t, []string{tt.opened}, opened)
			}
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	var opened []string
	c := newTestClassifier(&opened)

	reply, ok := c.Classify(context.Background(), "open github and tell me the time")
	assert.True(t, ok)
	assert.Equal(t, "Opening Github", reply)

	name, ok := c.Match("search for the time")
	assert.True(t, ok)
	assert.Equal(t, "search_google", name)
}

func TestClassify_OpenerFailureStillReplies(t *testing.T) {
	c := New(WithOpener(func(string) error { return errors.New("no display") }))

	reply, ok := c.Classify(context.Background(), "open google")
	assert.True(t, ok)
	assert.Equal(t, "Opening Google", reply)
}

func TestWithCommands(t *testing.T) {
	c := New(WithCommands([]Command{{
		Name:    "greet",
		Pattern: regexp.MustCompile(`\bhello\b`),
		Handle:  func(context.Context, *Classifier, []string) string { return "Hi!" },
	}}))

	reply, ok := c.Classify(context.Background(), "Hello there")
	assert.True(t, ok)
	assert.Equal(t, "Hi!", reply)

	_, ok = c.Classify(context.Background(), "open google")
	assert.False(t, ok)
}
