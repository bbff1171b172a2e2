package webbridge

import "sync"

// LayoutRegion is the measured region of the document used for dynamic
// height. Layout observation itself belongs to the host page.
type LayoutRegion interface {
	// ObserveHeight calls fn with the region's height every time it changes
	// and returns a function that stops observing.
	ObserveHeight(fn func(height float64)) (stop func())
	// ResetScroll scrolls the region's container back to the top. Resetting
	// before reporting a new height stops the text from jumping.
	ResetScroll()
}

// heightListener reports height changes of a LayoutRegion to the host.
// It connects at most once.
type heightListener struct {
	mu        sync.Mutex
	connected bool
	stop      func()
}

func (h *heightListener) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

func (h *heightListener) Connect(region LayoutRegion, out Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected || region == nil {
		return
	}
	h.stop = region.ObserveHeight(func(height float64) {
		region.ResetScroll()
		m, err := NewMessage(TypeDocumentHeight, height)
		if err != nil {
			return
		}
		out.Send(m)
	})
	h.connected = true
}

func (h *heightListener) Disconnect() {
	h.mu.Lock()
	stop := h.stop
	h.stop = nil
	h.connected = false
	h.mu.Unlock()

	if stop != nil {
		stop()
	}
}
