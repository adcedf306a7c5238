package services

import (
	"bufio"
	"mime"
	"net"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP accepts one message and sends its DATA section on the channel.
func fakeSMTP(t *testing.T) (host, port string, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { conn.Write([]byte(s + "\r\n")) }

		reply("220 localhost ready")
		var body strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- body.String()
					reply("250 OK")
					continue
				}
				body.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 localhost")
			case cmd == "DATA":
				inData = true
				reply("354 go ahead")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("250 OK")
			}
		}
	}()

	host, port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port, out
}

func TestSendHTMLEmailKeepsTitleInSubject(t *testing.T) {
	host, port, data := fakeSMTP(t)
	m := NewMailer(Config{Host: host, Port: port, From: "portal@example.com"})

	require.NoError(t, m.SendHTMLEmail("author@example.com", "New comment on Hello\r\nBcc: victim@example.com", "<p>hi</p>"))

	msg, err := mail.ReadMessage(strings.NewReader(<-data))
	require.NoError(t, err)
	assert.Empty(t, msg.Header.Get("Bcc"))
	assert.Equal(t, "author@example.com", msg.Header.Get("To"))
	assert.Equal(t, "New comment on Hello Bcc: victim@example.com", msg.Header.Get("Subject"))
}

func TestBuildMessageEncodesSubject(t *testing.T) {
	raw := buildMessage("portal@example.com", "a@example.com\nCc: b@example.com", "New comment on Café\nX-Evil: 1", "<p>body</p>")

	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Empty(t, msg.Header.Get("Cc"))
	assert.Empty(t, msg.Header.Get("X-Evil"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "New comment on Café X-Evil: 1", subject)
	assert.NotContains(t, msg.Header.Get("Subject"), "é")
}
