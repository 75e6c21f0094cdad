package host

// NewDemoHost seeds a MemoryHost with a small two-window browsing session so
// the inspector has something to show before a real browser transport exists.
func NewDemoHost() *MemoryHost {
	h := NewMemoryHost()
	h.AddWindow(1, true)
	h.AddWindow(2, false)

	docs := h.AddTab(1, "https://go.dev/doc/", "Go Documentation", nil)
	spec := h.AddTab(1, "https://go.dev/ref/spec", "The Go Programming Language Specification", &docs)
	h.AddTab(1, "https://go.dev/ref/mem", "The Go Memory Model", &spec)
	h.AddTab(1, "https://pkg.go.dev/std", "Standard library", &docs)

	gh := h.AddTab(1, "https://github.com", "GitHub", nil)
	h.AddTab(1, "https://github.com/charmbracelet/bubbletea", "charmbracelet/bubbletea", &gh)

	wiki := h.AddTab(2, "https://en.wikipedia.org", "Wikipedia", nil)
	h.AddTab(2, "https://en.wikipedia.org/wiki/Tree_(data_structure)", "Tree (data structure) - Wikipedia", &wiki)

	pinTab(h, docs)
	return h
}

func pinTab(h *MemoryHost, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	tab := h.tabs[id]
	tab.Pinned = true
	h.tabs[id] = tab
}
