// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package message

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSubCmds(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmds := ReceivePubSubCmds(ctx, mr.Addr(), "r1 view cmd")

	// malformed payloads are skipped
	require.NoError(t, client.Publish("r1 view cmd", "{").Err())

	cmd := NewCmd("click")
	cmd.Metadata["button"] = "1"
	require.NoError(t, PublishJsonCmd(client, "r1 view cmd", cmd))

	select {
	case got := <-cmds:
		assert.Equal(t, cmd, got)
	case <-ctx.Done():
		t.Fatal("no command received")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-cmds:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPublishJsonMsg(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sub := client.Subscribe("r1 view")
	defer sub.Close()
	_, err = sub.Receive()
	require.NoError(t, err)

	msg := NewMsg("show frame")
	msg.Metadata["id"] = "abc"
	msg.Payload = []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, PublishJsonMsg(client, "r1 view", msg))

	select {
	case redisMsg := <-sub.Channel():
		var got Msg
		require.NoError(t, json.Unmarshal([]byte(redisMsg.Payload), &got))
		assert.Equal(t, *msg, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}
