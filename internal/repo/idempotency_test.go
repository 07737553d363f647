package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetIdempotency_MissingInputs_ReturnsNotFound(t *testing.T) {
	db := newRepoDB(t, allModels()...)
	for _, tc := range []struct{ user, key string }{{"", "k"}, {"u", " "}} {
		if _, err := GetIdempotency(context.Background(), db, tc.user, "", tc.key, time.Now()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for %+v, got %v", tc, err)
		}
	}
}

func TestCreateAndGetIdempotency_NewChatScope(t *testing.T) {
	db := newRepoDB(t, allModels()...)
	ctx := context.Background()

	in := IdempotencyInput{
		UserID: "u1", ChatID: "", Key: "k1", MessageID: "m1", Status: 200,
		Response: []byte(`{"generatedText":"Amen","chatId":"c1","title":"Hope"}`),
		TTL:      time.Hour,
	}
	rec, err := CreateIdempotency(ctx, db, in)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || !rec.ExpiresAt.After(rec.CreatedAt) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "", "k1", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.MessageID != "m1" || string(got.Response) != string(in.Response) {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := CreateIdempotency(ctx, db, in); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetIdempotency_Expired(t *testing.T) {
	db := newRepoDB(t, allModels()...)
	ctx := context.Background()
	if _, err := CreateIdempotency(ctx, db, IdempotencyInput{
		UserID: "u1", ChatID: "c1", Key: "k", MessageID: "m", Status: 200,
		Response: []byte(`{}`), TTL: time.Minute,
	}); err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "u1", "c1", "k", time.Now().Add(2*time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound past expiry, got %v", err)
	}
}

func TestCreateIdempotency_Error_NoTable(t *testing.T) {
	db := newRepoDB(t)
	_, err := CreateIdempotency(context.Background(), db, IdempotencyInput{UserID: "u", Key: "k", Response: []byte(`{}`), TTL: time.Minute})
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}

func TestCreateIdempotency_ExpiredRecordCanBeRecordedAgain(t *testing.T) {
	db := newRepoDB(t, allModels()...)
	ctx := context.Background()
	in := IdempotencyInput{UserID: "u1", ChatID: "c1", Key: "k", MessageID: "m1", Status: 200, Response: []byte(`{"n":1}`), TTL: time.Millisecond}
	if _, err := CreateIdempotency(ctx, db, in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	in.MessageID, in.Response, in.TTL = "m2", []byte(`{"n":2}`), time.Hour
	if _, err := CreateIdempotency(ctx, db, in); err != nil {
		t.Fatalf("re-record after expiry: %v", err)
	}
	got, err := GetIdempotency(ctx, db, "u1", "c1", "k", time.Now().UTC())
	if err != nil || got.MessageID != "m2" {
		t.Fatalf("got %+v err=%v", got, err)
	}
}

func TestReserveCompleteDeleteIdempotency(t *testing.T) {
	db := newRepoDB(t, allModels()...)
	ctx := context.Background()
	key := IdempotencyInput{UserID: "u1", ChatID: "", Key: "k", TTL: time.Hour}

	rec, err := CreateIdempotency(ctx, db, key)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !rec.Pending() {
		t.Fatalf("reservation should be pending: %+v", rec)
	}
	if _, err := CreateIdempotency(ctx, db, key); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second reserve: want ErrDuplicate, got %v", err)
	}

	done := key
	done.MessageID, done.Status, done.Response = "m1", 200, []byte(`{"generatedText":"Amen"}`)
	if err := CompleteIdempotency(ctx, db, done); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err := GetIdempotency(ctx, db, "u1", "", "k", time.Now().UTC())
	if err != nil || got.Pending() || got.MessageID != "m1" || string(got.Response) != `{"generatedText":"Amen"}` {
		t.Fatalf("completed record: %+v err=%v", got, err)
	}

	if err := DeleteIdempotency(ctx, db, "u1", "", "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "u1", "", "k", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: want ErrNotFound, got %v", err)
	}
	if err := CompleteIdempotency(ctx, db, done); !errors.Is(err, ErrNotFound) {
		t.Fatalf("complete without reservation: want ErrNotFound, got %v", err)
	}
}
