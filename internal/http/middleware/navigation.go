package middleware

import (
	"context"
	"net/http"
	"sync"
)

// NavigateToHeader tells the dashboard which listing to open after a stage move
const NavigateToHeader = "X-Navigate-To"

type navigationKey struct{}

type navigationSlot struct {
	mu   sync.Mutex
	path string
}

// Navigation gives every request a slot the Navigator can write the
// post-transition path into
func Navigation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), navigationKey{}, &navigationSlot{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Navigator records navigation requests in the request's slot
type Navigator struct{}

func (Navigator) Navigate(ctx context.Context, path string) {
	if slot, ok := ctx.Value(navigationKey{}).(*navigationSlot); ok {
		slot.mu.Lock()
		slot.path = path
		slot.mu.Unlock()
	}
}

// NavigationTarget returns the path recorded for the request, if any
func NavigationTarget(ctx context.Context) string {
	slot, ok := ctx.Value(navigationKey{}).(*navigationSlot)
	if !ok {
		return ""
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.path
}
