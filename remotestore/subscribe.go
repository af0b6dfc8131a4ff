package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pastelflow/pastelflow/storage"
)

const readWait = 70 * time.Second // a bit over the server's ping period

// Subscribe dials the server's change feed for this session and invokes fn
// for every change pushed by other sessions. The feed stops on context cancel
// or the first transport error; there is no automatic reconnect here, the
// board simply degrades to its last-fetched snapshot.
func (c *Client) Subscribe(ctx context.Context, profileID string, fn func(storage.Change)) (func(), error) {
	wsURL, err := c.feedURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		<-done
		conn.Close()
	}()

	go func() {
		defer conn.Close()
		conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPingHandler(func(appData string) error {
			conn.SetReadDeadline(time.Now().Add(readWait))
			return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
		})

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("remotestore: change feed closed: %v", err)
				}
				return
			}

			// The hub coalesces queued frames into one message separated by
			// newlines; decode them all.
			dec := json.NewDecoder(bytes.NewReader(message))
			for {
				var change storage.Change
				if err := dec.Decode(&change); err != nil {
					if err != io.EOF {
						log.Printf("remotestore: bad change frame: %v", err)
					}
					break
				}
				fn(change)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}
	return cancel, nil
}

func (c *Client) feedURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws"
	q := u.Query()
	q.Set("token", c.token)
	q.Set("client_id", c.clientID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var _ storage.Subscriber = (*Client)(nil)
