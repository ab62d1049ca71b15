package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/biteme/order-platform/pkg/model"
)

const testPrefix = "session:registry_test"

// stubStore is an in-memory Store whose SetConnected is a true conditional
// flip, like the SQL it stands in for.
type stubStore struct {
	mu    sync.Mutex
	users map[string]*model.User

	clearCalls int
}

func newStubStore(users ...model.User) *stubStore {
	s := &stubStore{users: make(map[string]*model.User)}
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
	return s
}

func (s *stubStore) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (s *stubStore) SetConnected(_ context.Context, id string, connected bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Connected == connected {
		return false, nil
	}
	u.Connected = connected
	return true, nil
}

func (s *stubStore) ClearConnected(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	for _, u := range s.users {
		u.Connected = false
	}
	return nil
}

func alice() model.User {
	return model.User{ID: "alice", Password: "secret", Role: model.RoleCustomer}
}

func TestLogin_Success(t *testing.T) {
	reg := NewRegistry(newStubStore(alice()))

	sess, err := reg.Login(context.Background(), "alice", "secret", "10.0.0.7", "laptop", "biteme.client.x")
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", testPrefix, err)
	}
	if sess.Identity != "alice" || sess.Role != model.RoleCustomer {
		t.Errorf("%s - session %+v", testPrefix, sess)
	}
	if sess.ClientSubject != "biteme.client.x" {
		t.Errorf("%s - client subject = %q", testPrefix, sess.ClientSubject)
	}
	if reg.Get("alice") == nil {
		t.Error(testPrefix + " - session not registered")
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	reg := NewRegistry(newStubStore())
	if _, err := reg.Login(context.Background(), "nobody", "x", "", "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("%s - expected ErrNotFound, got %v", testPrefix, err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	reg := NewRegistry(newStubStore(alice()))
	if _, err := reg.Login(context.Background(), "alice", "wrong", "", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("%s - expected ErrInvalidCredentials, got %v", testPrefix, err)
	}
	if reg.Get("alice") != nil {
		t.Error(testPrefix + " - failed login left a session behind")
	}
}

func TestLogin_SecondLoginRejected(t *testing.T) {
	reg := NewRegistry(newStubStore(alice()))

	if _, err := reg.Login(context.Background(), "alice", "secret", "", "first", ""); err != nil {
		t.Fatalf("%s - first login: %v", testPrefix, err)
	}
	if _, err := reg.Login(context.Background(), "alice", "secret", "", "second", ""); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("%s - expected ErrAlreadyConnected, got %v", testPrefix, err)
	}
}

// Two racing logins for the same identity: exactly one wins, the other
// sees ErrAlreadyConnected.
func TestLogin_ConcurrentOneWinner(t *testing.T) {
	reg := NewRegistry(newStubStore(alice()))

	const goroutines = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, rejections := 0, 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Login(context.Background(), "alice", "secret", "", "", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyConnected):
				rejections++
			default:
				t.Errorf("%s - unexpected error: %v", testPrefix, err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%s - %d winners, want exactly 1", testPrefix, wins)
	}
	if rejections != goroutines-1 {
		t.Errorf("%s - %d rejections, want %d", testPrefix, rejections, goroutines-1)
	}
}

func TestLogout_ReleasesIdentity(t *testing.T) {
	reg := NewRegistry(newStubStore(alice()))

	if _, err := reg.Login(context.Background(), "alice", "secret", "", "", ""); err != nil {
		t.Fatalf("%s - login: %v", testPrefix, err)
	}
	if err := reg.Logout(context.Background(), "alice"); err != nil {
		t.Fatalf("%s - logout: %v", testPrefix, err)
	}
	if reg.Get("alice") != nil {
		t.Error(testPrefix + " - session survived logout")
	}

	// The identity is free again.
	if _, err := reg.Login(context.Background(), "alice", "secret", "", "", ""); err != nil {
		t.Fatalf("%s - relogin after logout: %v", testPrefix, err)
	}
}

func TestLogout_NotConnected(t *testing.T) {
	reg := NewRegistry(newStubStore(alice()))
	if err := reg.Logout(context.Background(), "alice"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("%s - expected ErrNotConnected, got %v", testPrefix, err)
	}
}

func TestReconcile_ClearsStaleFlags(t *testing.T) {
	user := alice()
	user.Connected = true // left over from an unclean shutdown
	store := newStubStore(user)
	reg := NewRegistry(store)

	if err := reg.Reconcile(context.Background()); err != nil {
		t.Fatalf("%s - reconcile: %v", testPrefix, err)
	}
	if store.clearCalls != 1 {
		t.Errorf("%s - clearCalls = %d", testPrefix, store.clearCalls)
	}

	// Without reconcile this login would be rejected.
	if _, err := reg.Login(context.Background(), "alice", "secret", "", "", ""); err != nil {
		t.Fatalf("%s - login after reconcile: %v", testPrefix, err)
	}
}

func TestSessions_Snapshot(t *testing.T) {
	reg := NewRegistry(newStubStore(
		alice(),
		model.User{ID: "bob", Password: "pw", Role: model.RoleCustomer},
	))

	reg.Login(context.Background(), "alice", "secret", "", "", "")
	reg.Login(context.Background(), "bob", "pw", "", "", "")

	if got := len(reg.Sessions()); got != 2 {
		t.Errorf("%s - %d sessions, want 2", testPrefix, got)
	}
}
