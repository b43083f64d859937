package scene

import "sync"

// Layer is the display surface the diorama draws into.
type Layer interface {
	Add(g *Graphic)
	Remove(g *Graphic)
}

// Collection is an in-memory Layer that keeps graphics in insertion order.
type Collection struct {
	mu       sync.Mutex
	graphics []*Graphic
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Add appends g unless it is already present.
func (c *Collection) Add(g *Graphic) {
	if g == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.graphics {
		if existing == g {
			return
		}
	}
	c.graphics = append(c.graphics, g)
}

// Remove drops g if present.
func (c *Collection) Remove(g *Graphic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.graphics {
		if existing == g {
			c.graphics = append(c.graphics[:i], c.graphics[i+1:]...)
			return
		}
	}
}

// Graphics returns a snapshot of the current graphics.
func (c *Collection) Graphics() []*Graphic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Graphic(nil), c.graphics...)
}

// Find returns the first graphic with the given name.
func (c *Collection) Find(name string) *Graphic {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.graphics {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Len returns the number of graphics.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.graphics)
}
