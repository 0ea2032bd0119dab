package main

import (
	"sync"
	"time"
)

const (
	maxMessages     = 5
	messageLifetime = 8 * time.Second
)

type message struct {
	text   string
	expire time.Time
}

var (
	messageMu sync.Mutex
	messages  []message
)

// addMessage queues a transient line for the bottom of the screen. A
// repeat of the newest line only extends its lifetime.
func addMessage(msg string) {
	if msg == "" {
		return
	}
	messageMu.Lock()
	defer messageMu.Unlock()
	expire := time.Now().Add(messageLifetime)
	if n := len(messages); n > 0 && messages[n-1].text == msg {
		messages[n-1].expire = expire
		return
	}
	messages = append(messages, message{text: msg, expire: expire})
	if len(messages) > maxMessages {
		messages = messages[len(messages)-maxMessages:]
	}
}

func getMessages() []string {
	messageMu.Lock()
	defer messageMu.Unlock()

	now := time.Now()
	var out []string
	var keep []message
	for _, m := range messages {
		if now.After(m.expire) {
			continue
		}
		out = append(out, m.text)
		keep = append(keep, m)
	}
	messages = keep
	return out
}
