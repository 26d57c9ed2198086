package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/logging"
	"github.com/gorilla/websocket"
)

const DefaultHeartbeat = 30 * time.Second

// Subscription selects postgres changes of one table. Event is INSERT,
// UPDATE, DELETE or "*"; Filter uses PostgREST syntax, e.g. "user_id=eq.42".
type Subscription struct {
	Table  string
	Event  string
	Filter string
}

func (s Subscription) topic() string {
	return "realtime:public:" + s.Table
}

// Change is one postgres change delivered on a subscription.
type Change struct {
	Table     string
	Type      string
	Record    Row
	OldRecord Row
}

// phxMessage is the Phoenix channel envelope.
type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

type changePayload struct {
	Data struct {
		Table     string `json:"table"`
		Type      string `json:"type"`
		Record    Row    `json:"record"`
		OldRecord Row    `json:"old_record"`
	} `json:"data"`
}

// RealtimeClient opens one websocket per subscription against
// /realtime/v1/websocket.
type RealtimeClient struct {
	endpoint  string
	anonKey   string
	tokens    TokenSource
	dialer    *websocket.Dialer
	heartbeat time.Duration
	log       logging.Logger
}

func NewRealtimeClient(opts Options, tokens TokenSource) *RealtimeClient {
	opts = opts.withDefaults()
	return &RealtimeClient{
		endpoint:  realtimeURL(opts.URL),
		anonKey:   opts.AnonKey,
		tokens:    tokens,
		dialer:    opts.Dialer,
		heartbeat: opts.Heartbeat,
		log:       opts.Logger,
	}
}

func realtimeURL(base string) string {
	u := strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/realtime/v1/websocket"
}

type channel struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	ref     atomic.Int64
}

func (c *channel) send(topic, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := phxMessage{Topic: topic, Event: event, Payload: raw, Ref: strconv.FormatInt(c.ref.Add(1), 10)}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Subscribe joins the table channel and calls handler for every change
// until the returned stop function is called or ctx ends. handler runs on
// the read goroutine.
func (r *RealtimeClient) Subscribe(ctx context.Context, sub Subscription, handler func(Change)) (func(), error) {
	token := r.anonKey
	if r.tokens != nil {
		t, err := r.tokens.AccessToken(ctx)
		switch {
		case err == nil:
			token = t
		case !errors.Is(err, ErrNoSession):
			return nil, err
		}
	}

	q := url.Values{"apikey": {r.anonKey}, "vsn": {"1.0.0"}}
	conn, _, err := r.dialer.DialContext(ctx, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("realtime dial: %w", err)
	}
	ch := &channel{conn: conn}

	event := sub.Event
	if event == "" {
		event = "*"
	}
	change := map[string]string{"event": event, "schema": "public", "table": sub.Table}
	if sub.Filter != "" {
		change["filter"] = sub.Filter
	}
	join := map[string]any{
		"config":       map[string]any{"postgres_changes": []any{change}},
		"access_token": token,
	}
	if err := ch.send(sub.topic(), "phx_join", join); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime join: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(r.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ch.send("phoenix", "heartbeat", struct{}{}); err != nil {
					r.log.Warn(ctx, "realtime heartbeat failed", "error", err)
					return
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					r.log.Warn(ctx, "realtime connection closed", "table", sub.Table, "error", err)
				}
				return
			}
			var msg phxMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			if msg.Event != "postgres_changes" {
				continue
			}
			var p changePayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				r.log.Warn(ctx, "bad realtime payload", "error", err)
				continue
			}
			handler(Change{Table: p.Data.Table, Type: p.Data.Type, Record: p.Data.Record, OldRecord: p.Data.OldRecord})
		}
	}()

	go func() {
		<-ctx.Done()
		_ = ch.send(sub.topic(), "phx_leave", struct{}{})
		_ = conn.Close()
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
	return stop, nil
}
