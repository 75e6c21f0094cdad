// Package host provides Host implementations. MemoryHost is a deterministic
// in-process browser stand-in used by the engine tests and the inspector
// demo; a real transport adapter translates the same interface onto an
// actual browser.
package host

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arbor-browser/arbor/internal/application/port"
)

// MoveCall records one Move request for order-sensitive assertions.
type MoveCall struct {
	TabID    int
	WindowID int
	Index    int
}

// MemoryHost implements port.Host over an in-memory tab table. Individual
// calls can be made to fail to exercise the engine's partial-failure paths.
type MemoryHost struct {
	mu     sync.Mutex
	nextID int

	tabs    map[int]port.HostTab
	windows map[int]bool // id -> focused

	// Per-call failure injection.
	RemoveErrs map[int]error
	MoveErrs   map[int]error
	CreateErr  error

	// Call logs.
	MoveCalls   []MoveCall
	RemoveCalls []int
	CreateCalls []port.CreateTabRequest
}

var _ port.Host = (*MemoryHost)(nil)

// NewMemoryHost creates an empty host with one unfocused window 1.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		nextID:     100,
		tabs:       make(map[int]port.HostTab),
		windows:    map[int]bool{1: false},
		RemoveErrs: make(map[int]error),
		MoveErrs:   make(map[int]error),
	}
}

// AddWindow registers a window.
func (h *MemoryHost) AddWindow(id int, focused bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.windows[id] = focused
}

// AddTab seeds a tab and returns its id.
func (h *MemoryHost) AddTab(windowID int, url, title string, opener *int) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.tabs[id] = port.HostTab{
		ID:       id,
		WindowID: windowID,
		Index:    h.windowSizeLocked(windowID),
		URL:      url,
		Title:    title,
		OpenerID: opener,
	}
	return id
}

// Tab returns the host's record for id.
func (h *MemoryHost) Tab(id int) (port.HostTab, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tab, ok := h.tabs[id]
	return tab, ok
}

func (h *MemoryHost) windowSizeLocked(windowID int) int {
	n := 0
	for _, tab := range h.tabs {
		if tab.WindowID == windowID {
			n++
		}
	}
	return n
}

// Query returns every tab ordered by window then index.
func (h *MemoryHost) Query(_ context.Context) ([]port.HostTab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]port.HostTab, 0, len(h.tabs))
	for _, tab := range h.tabs {
		out = append(out, tab)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WindowID != out[j].WindowID {
			return out[i].WindowID < out[j].WindowID
		}
		return out[i].Index < out[j].Index
	})
	return out, nil
}

// Windows returns every window in id order.
func (h *MemoryHost) Windows(_ context.Context) ([]port.HostWindow, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]int, 0, len(h.windows))
	for id := range h.windows {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]port.HostWindow, 0, len(ids))
	for _, id := range ids {
		out = append(out, port.HostWindow{ID: id, Focused: h.windows[id]})
	}
	return out, nil
}

// Move repositions a tab, recording the call.
func (h *MemoryHost) Move(_ context.Context, tabID, windowID, index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.MoveCalls = append(h.MoveCalls, MoveCall{TabID: tabID, WindowID: windowID, Index: index})
	if err := h.MoveErrs[tabID]; err != nil {
		return err
	}
	tab, ok := h.tabs[tabID]
	if !ok {
		return fmt.Errorf("move: no tab %d", tabID)
	}
	tab.WindowID = windowID
	tab.Index = index
	h.tabs[tabID] = tab
	return nil
}

// Remove closes a tab, recording the call.
func (h *MemoryHost) Remove(_ context.Context, tabID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.RemoveCalls = append(h.RemoveCalls, tabID)
	if err := h.RemoveErrs[tabID]; err != nil {
		return err
	}
	if _, ok := h.tabs[tabID]; !ok {
		return fmt.Errorf("remove: no tab %d", tabID)
	}
	delete(h.tabs, tabID)
	return nil
}

// Create opens a tab, recording the call.
func (h *MemoryHost) Create(_ context.Context, req port.CreateTabRequest) (port.HostTab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.CreateCalls = append(h.CreateCalls, req)
	if h.CreateErr != nil {
		return port.HostTab{}, h.CreateErr
	}

	h.nextID++
	tab := port.HostTab{
		ID:       h.nextID,
		WindowID: req.WindowID,
		Index:    h.windowSizeLocked(req.WindowID),
		URL:      req.URL,
		Active:   req.Active,
	}
	h.tabs[tab.ID] = tab
	return tab, nil
}

// Activate marks a tab active and every other tab inactive.
func (h *MemoryHost) Activate(_ context.Context, tabID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.tabs[tabID]; !ok {
		return fmt.Errorf("activate: no tab %d", tabID)
	}
	for id, tab := range h.tabs {
		tab.Active = id == tabID
		h.tabs[id] = tab
	}
	return nil
}

// FocusWindow marks a window focused and every other window unfocused.
func (h *MemoryHost) FocusWindow(_ context.Context, windowID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.windows[windowID]; !ok {
		return fmt.Errorf("focus: no window %d", windowID)
	}
	for id := range h.windows {
		h.windows[id] = id == windowID
	}
	return nil
}
