package stream

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"backend-fittrack/internal/workout"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("session-1")
	defer hub.Unregister(client)

	hub.Broadcast("session-1", []byte("hello"))

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubPublishSnapshot(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("session-1")
	defer hub.Unregister(client)

	hub.Publish(workout.Snapshot{SessionID: "session-1", DistanceKm: 1.5, DurationMs: 600_000, State: workout.StateActive})

	select {
	case raw := <-client.Send:
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Snapshot.DistanceKm != 1.5 || msg.Display.Duration != "00:10:00" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for snapshot")
	}
}

func TestHubIgnoresOtherSessions(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("session-1")
	defer hub.Unregister(client)

	hub.Broadcast("session-2", []byte("not for you"))

	select {
	case <-client.Send:
		t.Fatalf("unexpected delivery")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "workout:abc:snapshots" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if sessionIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected session id")
	}
	if sessionIDFromChannel("bad") != "" {
		t.Fatalf("expected empty session id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("session-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
	// second unregister is harmless
	hub.Unregister(client)
}

func TestHubRedisFanOut(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client, nil)
	defer hub.Close()
	<-hub.ready

	ws := hub.Register("session-redis")
	defer hub.Unregister(ws)

	hub.Broadcast("session-redis", []byte("ping"))
	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// a publish from another instance reaches local watchers
	if err := client.Publish(context.Background(), redisChannel("session-redis"), "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	select {
	case msg := <-ws.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisPublishErrorFallsBack(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	hub := NewHub(client, nil)
	<-hub.ready
	server.Close()
	defer hub.Close()

	ws := hub.Register("session-bad")
	defer hub.Unregister(ws)

	hub.Broadcast("session-bad", []byte("ping"))
	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected local delivery")
	}
}

func TestHubRedisPublishIsBounded(t *testing.T) {
	// accepts connections and never answers
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	client := redis.NewClient(&redis.Options{Addr: ln.Addr().String(), ReadTimeout: 10 * time.Second, MaxRetries: -1})
	defer client.Close()

	hub := &Hub{
		redis:          client,
		logger:         zap.NewNop(),
		publishTimeout: 100 * time.Millisecond,
		clients:        map[string]map[*Client]struct{}{},
	}
	ws := hub.Register("session-hang")
	defer hub.Unregister(ws)

	start := time.Now()
	hub.Broadcast("session-hang", []byte("ping"))
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("broadcast took %v", elapsed)
	}
	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	default:
		t.Fatalf("expected local delivery after publish timeout")
	}
}
