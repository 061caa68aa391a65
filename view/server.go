// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package view

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/skratchdot/open-golang/open"

	"github.com/rditech/rdi-hitview/view/handlers/client"
	"github.com/rditech/rdi-hitview/view/message"
)

// Server serves one session to browsers.
type Server struct {
	Session *Session
	// Port defaults to $PORT, then 8080.
	Port string
	// RedisAddr defaults to $REDIS_ADDR, then an embedded miniredis.
	RedisAddr   string
	OpenBrowser bool
	// Player, when set, advances the session automatically.
	Player *Player
}

func (s *Server) Channel() string {
	return s.Session.Name + " view"
}

func (s *Server) CmdChannel() string {
	return s.Session.Name + " view cmd"
}

func (s *Server) port() string {
	if s.Port != "" {
		return s.Port
	}
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

func (s *Server) redisAddr() (addr string, closer func(), err error) {
	addr = s.RedisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		return addr, func() {}, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return "", nil, errors.Wrap(err, "unable to start miniredis server")
	}
	return mr.Addr(), mr.Close, nil
}

// Router routes the client websocket and the embedded page.
func (s *Server) Router(clientHandler http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/client", clientHandler)
	router.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(WebdataBox)))
	return router
}

// Serve runs the session until it ends, ctx is done or the process is
// interrupted.
func (s *Server) Serve(ctx context.Context) error {
	addr, closeRedis, err := s.redisAddr()
	if err != nil {
		return err
	}
	defer closeRedis()

	redisClient := redis.NewClient(&redis.Options{Addr: addr})
	defer redisClient.Close()
	if err := redisClient.Ping().Err(); err != nil {
		return errors.Wrapf(err, "unable to ping redis server at %s", addr)
	}
	log.Info().Str("addr", addr).Msg("connected to redis server")

	channel := s.Channel()
	s.Session.Publish = func(msg *message.Msg) {
		if err := message.PublishJsonMsg(redisClient, channel, msg); err != nil {
			log.Error().Err(err).Str("channel", channel).Msg("unable to publish")
		}
	}

	port := s.port()
	clientHandler := &client.ClientHandler{
		Redis:      redisClient,
		Addr:       addr,
		Channel:    channel,
		CmdChannel: s.CmdChannel(),
		Linger:     time.Second,
	}
	clientHandler.EnableCompression = true
	srv := &http.Server{Addr: ":" + port, Handler: s.Router(clientHandler)}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmds := message.ReceivePubSubCmds(ctx, addr, s.CmdChannel())
	if s.Player != nil {
		cmds = s.Player.Play(ctx, cmds)
	}
	sessionErr := make(chan error, 1)
	go func() {
		err := s.Session.Manage(ctx, cmds)
		if err != nil && errors.Cause(err) != context.Canceled {
			sessionErr <- err
		}
		close(sessionErr)
		// give clients a moment to receive "session close"
		time.Sleep(100 * time.Millisecond)
		srv.Shutdown(context.Background())
	}()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		defer signal.Stop(c)
		select {
		case <-c:
			log.Info().Msg("interrupted")
			cancel()
		case <-ctx.Done():
		}
	}()

	if s.OpenBrowser {
		clientHandler.Srv = srv
		go func() {
			time.Sleep(10 * time.Millisecond)
			if err := open.Run("http://localhost:" + port); err != nil {
				log.Warn().Err(err).Msg("unable to open browser")
			}
		}()
	}

	log.Info().Str("port", port).Str("session", s.Session.Name).Msg("http server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	cancel()
	return <-sessionErr
}
