// Package port defines the boundary interfaces between the tab-tree engine
// and its collaborators (browser host, persisted state). The engine depends
// on these interfaces instead of importing infrastructure packages.
package port

import "context"

// HostTab is the host's view of a single tab, as returned by queries and
// carried on tab-created events.
type HostTab struct {
	ID         int
	WindowID   int
	Index      int // flat position inside its window
	URL        string
	Title      string
	FaviconURL string
	Active     bool
	Pinned     bool
	Audible    bool
	Loading    bool
	OpenerID   *int // tab id of the opener, if the host knows one
}

// HostWindow is the host's view of a browser window.
type HostWindow struct {
	ID      int
	Focused bool
}

// CreateTabRequest asks the host to open a tab, used when undoing a close.
type CreateTabRequest struct {
	URL      string
	WindowID int
	Active   bool
}

// Host is the outbound command surface to the browser. Every call is awaited
// independently; a failed call is reported per item by the engine and never
// unwinds the caller. Host state may lag the engine's optimistic local state
// until the next full sync.
type Host interface {
	Query(ctx context.Context) ([]HostTab, error)
	Windows(ctx context.Context) ([]HostWindow, error)
	Move(ctx context.Context, tabID, windowID, index int) error
	Remove(ctx context.Context, tabID int) error
	Create(ctx context.Context, req CreateTabRequest) (HostTab, error)
	Activate(ctx context.Context, tabID int) error
	FocusWindow(ctx context.Context, windowID int) error
}
