package services

import (
	"log"
	"sync"
)

// ConnectivityService tracks whether the device currently has network
// connectivity. Clients report transitions through the API; the rest of the
// pipeline consults the flag instead of probing the network itself.
type ConnectivityService struct {
	mu        sync.RWMutex
	online    bool
	listeners []func()
}

// NewConnectivityService creates a connectivity tracker. The service starts
// online; an offline client reports its state before anything interesting
// happens.
func NewConnectivityService() *ConnectivityService {
	return &ConnectivityService{online: true}
}

// Online reports the last known connectivity state
func (c *ConnectivityService) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// SetOnline records a connectivity transition and reports whether the state
// changed. An offline-to-online transition fires the registered listeners,
// each on its own goroutine so a slow listener cannot block the caller.
func (c *ConnectivityService) SetOnline(online bool) bool {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	listeners := c.listeners
	c.mu.Unlock()

	if !changed {
		return false
	}

	if online {
		log.Println("🌐 [CONNECTIVITY] Back online")
		for _, fn := range listeners {
			go fn()
		}
	} else {
		log.Println("📴 [CONNECTIVITY] Went offline")
	}
	return true
}

// OnOnline registers a callback fired on every offline-to-online transition
func (c *ConnectivityService) OnOnline(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}
