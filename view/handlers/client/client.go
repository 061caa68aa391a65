// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/rditech/rdi-hitview/view/message"
)

// ClientHandler bridges a browser websocket to a viewer session: session
// messages from Channel are written to the socket and browser commands are
// published on CmdChannel.
type ClientHandler struct {
	Redis      *redis.Client
	Addr       string
	Channel    string
	CmdChannel string
	// Srv is shut down when the last client disconnects.
	Srv *http.Server
	// Linger is how long to wait for a reconnect before shutting Srv down.
	Linger time.Duration

	nClients int64

	websocket.Upgrader
}

func (h *ClientHandler) NClients() int64 {
	return atomic.LoadInt64(&h.nClients)
}

func (h *ClientHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Info().Str("remote", r.RemoteAddr).Msg("starting client ws serve")
	c, err := h.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("unable to upgrade client connection")
		return
	}
	defer c.Close()

	subClient := redis.NewClient(&redis.Options{Addr: h.Addr})
	defer subClient.Close()
	sub := subClient.Subscribe(h.Channel)
	if _, err = sub.Receive(); err != nil {
		log.Error().Err(err).Str("channel", h.Channel).Msg("unable to subscribe")
		return
	}
	defer sub.Close()
	broadcast := sub.ChannelSize(100)

	atomic.AddInt64(&h.nClients, 1)
	defer h.release()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()

		for cmd := range message.ReceiveWsCmds(ctx, c) {
			h.Execute(cmd)
		}
	}()

	// the new client needs every current frame
	h.Execute(message.NewCmd("pub all"))

	frameBufs := make(chan []byte, 100)
	priorityBufs := make(chan []byte, 1000)
	go func() {
		defer cancel()

		for {
			var buf []byte
			select {
			case buf = <-priorityBufs:
			default:
				select {
				case buf = <-priorityBufs:
				case buf = <-frameBufs:
				case <-ctx.Done():
					return
				}
			}

			if err := c.WriteMessage(websocket.TextMessage, buf); err != nil {
				log.Warn().Err(err).Msg("unable to write to client")
				return
			}
		}
	}()

	for {
		select {
		case redisMsg, ok := <-broadcast:
			if !ok {
				return
			}
			buf := []byte(redisMsg.Payload)
			msg := &message.Msg{}
			if err := json.Unmarshal(buf, msg); err != nil {
				log.Warn().Err(err).Msg("dropping malformed session message")
				continue
			}

			switch msg.Type {
			case "show frame":
				// slow clients lose frames, never notices
				select {
				case frameBufs <- buf:
				default:
				}
			default:
				select {
				case priorityBufs <- buf:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			log.Info().Str("remote", r.RemoteAddr).Msg("stopped client ws serve")
			return
		}
	}
}

// Execute forwards a browser command to the session.
func (h *ClientHandler) Execute(cmd *message.Cmd) {
	log.Debug().Str("cmd", cmd.Command).Interface("meta", cmd.Metadata).Msg("client command")

	if err := message.PublishJsonCmd(h.Redis, h.CmdChannel, cmd); err != nil {
		log.Error().Err(err).Str("channel", h.CmdChannel).Msg("unable to forward command")
	}
}

func (h *ClientHandler) release() {
	go func() {
		time.Sleep(h.Linger)
		if atomic.AddInt64(&h.nClients, -1) == 0 && h.Srv != nil {
			log.Info().Msg("no clients, shutting down")
			h.Srv.Shutdown(context.Background())
		}
	}()
}
