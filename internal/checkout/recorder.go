package checkout

import (
	"sync"

	"github.com/fjod/furstore/internal/domain"
)

// Recorder collects notifications and the last navigation target so a
// request handler can hand them to the client.
type Recorder struct {
	mu            sync.Mutex
	notifications []domain.Notification
	redirect      string
}

func (r *Recorder) Notify(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirect = path
}

func (r *Recorder) Notifications() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

func (r *Recorder) Redirect() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirect
}
