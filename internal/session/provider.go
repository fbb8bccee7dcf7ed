// Package session tracks which user, if any, is signed in to an engine.
package session

import "sync"

// State is a snapshot of the session: the signed-in user id, or SignedIn=false.
type State struct {
	UserID   string
	SignedIn bool
}

// Source is what the notification engine observes.
type Source interface {
	Current() State
	Subscribe() (<-chan State, func())
}

// Provider holds the current user and fans out changes to subscribers.
// Each subscriber channel holds only the most recent undelivered state.
type Provider struct {
	mu      sync.Mutex
	state   State
	nextID  int
	watches map[int]chan State
}

func NewProvider() *Provider {
	return &Provider{watches: make(map[int]chan State)}
}

// SignIn switches the session to userID. Signing in as the current user is a no-op.
func (p *Provider) SignIn(userID string) {
	p.set(State{UserID: userID, SignedIn: userID != ""})
}

// SignOut clears the session.
func (p *Provider) SignOut() {
	p.set(State{})
}

func (p *Provider) Current() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe returns a channel of state changes and a func that stops delivery.
func (p *Provider) Subscribe() (<-chan State, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	ch := make(chan State, 1)
	p.watches[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.watches, id)
		})
	}
}

func (p *Provider) set(next State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if next == p.state {
		return
	}
	p.state = next
	for _, ch := range p.watches {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}
