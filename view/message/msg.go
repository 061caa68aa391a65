// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package message

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Msg is sent from a viewer session to browser clients.
type Msg struct {
	Type     string
	Metadata map[string]string
	Payload  []byte
}

func NewMsg(msgType string) *Msg {
	return &Msg{Type: msgType, Metadata: make(map[string]string)}
}

func PublishJsonMsg(redis *redis.Client, channel string, msg *Msg) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "unable to marshal message")
	}
	return redis.Publish(channel, string(msgBytes)).Err()
}

// Cmd is sent from browser clients to a viewer session.
type Cmd struct {
	Command  string
	Metadata map[string]string
}

func NewCmd(command string) *Cmd {
	return &Cmd{Command: command, Metadata: make(map[string]string)}
}

func PublishJsonCmd(redis *redis.Client, channel string, cmd *Cmd) error {
	cmdBytes, err := json.Marshal(cmd)
	if err != nil {
		return errors.Wrap(err, "unable to marshal command")
	}
	return redis.Publish(channel, string(cmdBytes)).Err()
}

type Executer interface {
	Execute(*Cmd) error
}

// ReceivePubSubCmds subscribes to channel and decodes every message as a
// Cmd. The subscription is active once the function returns.
func ReceivePubSubCmds(ctx context.Context, addr, channel string) <-chan *Cmd {
	cmds := make(chan *Cmd)

	redisClient := redis.NewClient(&redis.Options{Addr: addr})
	sub := redisClient.Subscribe(channel)
	if _, err := sub.Receive(); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("unable to subscribe")
		sub.Close()
		redisClient.Close()
		close(cmds)
		return cmds
	}

	go func() {
		defer close(cmds)
		defer redisClient.Close()
		defer sub.Close()

		log.Debug().Str("channel", channel).Msg("listening for commands")
		defer log.Debug().Str("channel", channel).Msg("done listening for commands")

		msgs := sub.ChannelSize(10)
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var cmd Cmd
				if err := json.Unmarshal([]byte(msg.Payload), &cmd); err != nil {
					log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed command")
					continue
				}
				select {
				case cmds <- &cmd:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return cmds
}

func ReceiveWsCmds(ctx context.Context, c *websocket.Conn) <-chan *Cmd {
	cmds := make(chan *Cmd)

	go func() {
		defer close(cmds)

		for {
			var cmd Cmd
			err := c.ReadJSON(&cmd)
			if err != nil {
				return
			}
			select {
			case cmds <- &cmd:
			case <-ctx.Done():
				return
			}
		}
	}()

	return cmds
}
