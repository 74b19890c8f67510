package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type memoryS3Server struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    map[string]bool // keys that always fail PUT
}

func newMemoryS3Server() *memoryS3Server {
	return &memoryS3Server{objects: make(map[string][]byte), fail: make(map[string]bool)}
}

func (m *memoryS3Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	key := strings.TrimPrefix(r.URL.Path, "/")
	// path-style requests are /bucket/key
	parts := strings.SplitN(key, "/", 2)
	if len(parts) == 2 {
		key = parts[1]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		if m.fail[key] {
			http.Error(w, "injected failure", http.StatusInternalServerError)
			return
		}
		body, _ := io.ReadAll(r.Body)
		m.objects[key] = append([]byte(nil), body...)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(m.objects, key)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		body, ok := m.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(body)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (m *memoryS3Server) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func testStore(t *testing.T, server *memoryS3Server) (*Store, func()) {
	t.Helper()
	ts := httptest.NewServer(server)
	cfg := Config{
		Endpoint:      ts.URL,
		Region:        "auto",
		Bucket:        "mediaforge-test",
		AccessKey:     "AKIAEXAMPLE",
		SecretKey:     "secretExample",
		PublicBaseURL: "https://cdn.example.com",
	}
	return New(cfg), ts.Close
}

func TestPutAndDelete(t *testing.T) {
	server := newMemoryS3Server()
	store, closeFn := testStore(t, server)
	defer closeFn()

	ctx := context.Background()
	err := store.Put(ctx, Object{Key: "/assets/ab/abcd/original.jpg", Body: []byte("hello"), ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if !server.has("assets/ab/abcd/original.jpg") {
		t.Fatal("expected leading slash to be stripped and object stored")
	}

	if err := store.Delete(ctx, "assets/ab/abcd/original.jpg"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if server.has("assets/ab/abcd/original.jpg") {
		t.Fatal("expected object to be removed")
	}
}

func TestPutMultipleRollsBackOnFailure(t *testing.T) {
	server := newMemoryS3Server()
	server.fail["variants/thumb.webp"] = true
	store, closeFn := testStore(t, server)
	defer closeFn()

	objs := []Object{
		{Key: "variants/thumb.jpg", Body: []byte("a"), ContentType: "image/jpeg"},
		{Key: "variants/thumb.webp", Body: []byte("b"), ContentType: "image/webp"},
		{Key: "variants/thumb.png", Body: []byte("c"), ContentType: "image/png"},
	}

	err := store.PutMultiple(context.Background(), objs)
	if err == nil {
		t.Fatal("expected PutMultiple to fail")
	}

	var batchErr *BatchFailed
	if !asBatchFailed(err, &batchErr) {
		t.Fatalf("expected *BatchFailed, got %T: %v", err, err)
	}

	if server.has("variants/thumb.jpg") || server.has("variants/thumb.png") {
		t.Fatal("expected successfully-uploaded siblings to be rolled back")
	}
}

func asBatchFailed(err error, target **BatchFailed) bool {
	bf, ok := err.(*BatchFailed)
	if !ok {
		return false
	}
	*target = bf
	return true
}

func TestPutMultipleAllSucceed(t *testing.T) {
	server := newMemoryS3Server()
	store, closeFn := testStore(t, server)
	defer closeFn()

	objs := []Object{
		{Key: "variants/a.jpg", Body: []byte("a"), ContentType: "image/jpeg"},
		{Key: "variants/b.jpg", Body: []byte("b"), ContentType: "image/jpeg"},
	}
	if err := store.PutMultiple(context.Background(), objs); err != nil {
		t.Fatalf("PutMultiple returned error: %v", err)
	}
	if !server.has("variants/a.jpg") || !server.has("variants/b.jpg") {
		t.Fatal("expected both objects to be stored")
	}
}

func TestPublicURL(t *testing.T) {
	server := newMemoryS3Server()
	store, closeFn := testStore(t, server)
	defer closeFn()

	got := store.PublicURL("/assets/ab/abcd/original.jpg")
	want := "https://cdn.example.com/assets/ab/abcd/original.jpg"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
