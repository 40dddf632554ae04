// Package server implements the websocket preview server: it plays an
// animation document and pushes information, frame and error events to
// connected browser sessions.
package server

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vecplay/vecplay/anim"
	"github.com/vecplay/vecplay/cache"
	"github.com/vecplay/vecplay/player"
)

// writeTimeout bounds a single event write; sessions slower than this are
// treated as gone.
const writeTimeout = 10 * time.Second

// Server serves one animation document to any number of preview sessions.
type Server struct {
	addr  string
	file  string
	store *cache.DiskStore
	opts  player.Options

	log      *logrus.Logger
	upgrader websocket.Upgrader
}

// New creates a preview server for the document at file. A nil store
// disables frame-cache persistence.
func New(addr, file string, store *cache.DiskStore, opts player.Options) *Server {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Server{
		addr:  addr,
		file:  file,
		store: store,
		opts:  opts,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler serving the preview endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandlePreview)
	return mux
}

// ListenAndServe blocks serving the preview endpoints until the listener
// fails.
func (s *Server) ListenAndServe() error {
	s.log.WithFields(logrus.Fields{"addr": s.addr, "file": s.file}).Info("Preview server listening")
	return http.ListenAndServe(s.addr, s.Handler())
}

type event struct {
	Type        string  `json:"type"` // "information", "frame", "error"
	FrameRate   float64 `json:"frameRate,omitempty"`
	FramesCount int     `json:"framesCount,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	PositionMs  int64   `json:"positionMs,omitempty"`
	PNG         string  `json:"png,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// HandlePreview upgrades the connection and streams playback events until
// the animation fails or the client goes away.
func (s *Server) HandlePreview(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	session := uuid.NewString()[:8]
	log := s.log.WithField("session", session)

	request := requestFromQuery(r)
	animation := s.newAnimation(request)
	defer animation.Close()

	// Read pump: its exit signals a client disconnect.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Info("Preview session started")
	for {
		select {
		case <-closed:
			log.Info("Preview session closed by client")
			return
		case u, ok := <-animation.Updates():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.send(conn, animation, request, u); err != nil {
				log.WithError(err).Debug("Preview session write failed")
				return
			}
		}
	}
}

func (s *Server) newAnimation(request anim.FrameRequest) *player.Animation {
	if s.store == nil {
		return player.New(nil, s.file, request, s.opts)
	}
	key := cache.Key(s.file, request)
	get := func(deliver func(cached []byte)) {
		deliver(s.store.Load(key))
	}
	put := func(blob []byte) {
		if err := s.store.Save(key, blob); err != nil {
			s.log.WithError(err).Warn("Frame cache persist failed")
		}
	}
	return player.NewCached(get, put, nil, s.file, request, s.opts)
}

func (s *Server) send(conn *websocket.Conn, animation *player.Animation, request anim.FrameRequest, u player.Update) error {
	switch u := u.(type) {
	case player.InformationReady:
		info := u.Information
		return conn.WriteJSON(event{
			Type:        "information",
			FrameRate:   info.FrameRate,
			FramesCount: info.FramesCount,
			Width:       info.Size.Width,
			Height:      info.Size.Height,
		})
	case player.DisplayFrameRequest:
		img := animation.Frame(request)
		animation.MarkFrameShown()
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return err
		}
		return conn.WriteJSON(event{
			Type:       "frame",
			PositionMs: u.Position.Milliseconds(),
			PNG:        base64.StdEncoding.EncodeToString(buf.Bytes()),
		})
	case player.Failure:
		return conn.WriteJSON(event{Type: "error", Error: u.Err.Error()})
	}
	return nil
}

func requestFromQuery(r *http.Request) anim.FrameRequest {
	q := r.URL.Query()
	width, _ := strconv.Atoi(q.Get("w"))
	height, _ := strconv.Atoi(q.Get("h"))
	return anim.FrameRequest{Box: anim.Size{Width: width, Height: height}}
}
