package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisRecordStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisRecordStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, s
}

func TestRedisRecordStore_SaveLoad(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	ctx := context.Background()

	if _, err := store.Load(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() of unknown id error = %v, want ErrNotFound", err)
	}

	if err := store.Save(ctx, "s1", json.RawMessage(`{"main_text":"v1"}`), "first"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first, _ := store.Load(ctx, "s1")
	if err := store.Save(ctx, "s1", json.RawMessage(`{"main_text":"v2"}`), "second"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(rec.Data) != `{"main_text":"v2"}` || rec.Summary != "second" {
		t.Errorf("Load() = %+v", rec)
	}
	if !rec.CreatedAt.Equal(first.CreatedAt) {
		t.Error("CreatedAt should survive updates")
	}
	if !s.Exists("aeo:session:s1") {
		t.Error("expected key aeo:session:s1")
	}
}

func TestRedisRecordStore_Pairs(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	ctx := context.Background()

	for _, q := range []string{"a", "b"} {
		if err := store.AddPair(ctx, TextPair{SessionID: "s1", Text1: q, Text2: "text"}); err != nil {
			t.Fatalf("AddPair() error = %v", err)
		}
	}
	pairs, err := store.Pairs(ctx, "s1")
	if err != nil || len(pairs) != 2 || pairs[0].Text1 != "a" || pairs[1].Text1 != "b" {
		t.Errorf("Pairs() = %+v, %v", pairs, err)
	}
	if items, _ := s.List("aeo:pairs:s1"); len(items) != 2 {
		t.Errorf("redis list has %d items", len(items))
	}
}

func TestRedisRecordStore_Ping(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	s.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Error("Ping should fail once redis is gone")
	}
}

func TestNewRedisRecordStore_BadURL(t *testing.T) {
	if _, err := NewRedisRecordStore("not a url"); err == nil {
		t.Error("expected an error for an invalid URL")
	}
}
