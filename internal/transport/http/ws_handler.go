package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"streekhook/internal/app"
	"streekhook/internal/domain"
)

// pushInterval is how often a socket pushes the latest known state, so
// clients see roster changes and countdown ticks without asking.
const pushInterval = time.Second

// WSHandler exposes the host and participant controllers over websockets.
// Each socket drives exactly one controller; clients still converge only
// through the shared room store, never through each other's connections.
type WSHandler struct {
	store    app.RoomStore
	profiles app.ProfileStore
	gen      app.QuizGenerator
	upgrader websocket.Upgrader
}

func NewWSHandler(store app.RoomStore, profiles app.ProfileStore, gen app.QuizGenerator) *WSHandler {
	return &WSHandler{
		store:    store,
		profiles: profiles,
		gen:      gen,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type createPayload struct {
	Topic string `json:"topic"`
}

type answerPayload struct {
	OptionIndex int `json:"optionIndex"`
}

// ServeHost runs a host session over one websocket. Inbound actions:
// create, start, leaderboard, next. Outbound: state snapshots and errors.
func (h *WSHandler) ServeHost(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	host := app.NewHost(h.store, h.gen)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	pusherDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Error().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(pusherDone)
		ticker := time.NewTicker(pushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if state, ok := host.Snapshot(); ok {
					select {
					case send <- outboundMessage[any]{Type: "state", Payload: state}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	created := false
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "create":
			var payload createPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Topic == "" {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid create payload"}}
				continue
			}
			if created {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "room already created"}}
				continue
			}
			state, err := host.CreateRoom(ctx, payload.Topic)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			created = true
			go host.Run(ctx)
			send <- outboundMessage[any]{Type: "state", Payload: state}
		case "start", "leaderboard", "next":
			if err := h.hostAction(ctx, host, inbound.Type); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			if state, ok := host.Snapshot(); ok {
				send <- outboundMessage[any]{Type: "state", Payload: state}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	cancel()
	<-pusherDone
	close(send)
	<-writerDone
}

func (h *WSHandler) hostAction(ctx context.Context, host *app.Host, action string) error {
	switch action {
	case "start":
		return host.StartGame(ctx)
	case "leaderboard":
		return host.ShowLeaderboard(ctx)
	case "next":
		return host.NextQuestion(ctx)
	}
	return nil
}

// ServeParticipant runs a player session over one websocket. The join data
// travels in the query string; answers come as messages.
func (h *WSHandler) ServeParticipant(w http.ResponseWriter, r *http.Request) {
	roomCode := r.URL.Query().Get("roomCode")
	name := r.URL.Query().Get("name")
	avatar := r.URL.Query().Get("avatar")
	sessionID := r.URL.Query().Get("sessionId")
	if roomCode == "" || name == "" || avatar == "" {
		http.Error(w, "missing roomCode, name, or avatar", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	participant := app.NewParticipant(h.store, h.profiles, sessionID)
	joined, err := participant.Join(ctx, roomCode, domain.UserProfile{Name: name, Avatar: avatar})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	go participant.Run(ctx)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	pusherDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Error().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(pusherDone)
		ticker := time.NewTicker(pushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if participant.Gone() {
					select {
					case send <- outboundMessage[any]{Type: "roomClosed", Payload: errorPayload{Message: "room ended"}}:
					case <-ctx.Done():
					}
					return
				}
				if state, ok := participant.Snapshot(); ok {
					select {
					case send <- outboundMessage[any]{Type: "state", Payload: state}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			result, err := participant.SubmitAnswer(ctx, payload.OptionIndex)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: result}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	cancel()
	<-pusherDone
	close(send)
	<-writerDone
}
