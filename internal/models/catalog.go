package models

// Catalog maps album ids to albums while remembering the order they were added in.
type Catalog struct {
	order []string
	byID  map[string]Album
}

// NewCatalog builds a catalog from albums; a later album with a repeated id replaces the earlier one in place.
func NewCatalog(albums ...Album) *Catalog {
	c := &Catalog{byID: make(map[string]Album, len(albums))}
	for _, a := range albums {
		c.Add(a)
	}
	return c
}

// Add inserts or replaces an album.
func (c *Catalog) Add(a Album) {
	if c.byID == nil {
		c.byID = make(map[string]Album)
	}
	if _, exists := c.byID[a.ID]; !exists {
		c.order = append(c.order, a.ID)
	}
	c.byID[a.ID] = a
}

// Get looks up an album by id.
func (c *Catalog) Get(id string) (Album, bool) {
	if c == nil {
		return Album{}, false
	}
	a, ok := c.byID[id]
	return a, ok
}

// IDs returns album ids in insertion order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Albums returns every album in insertion order.
func (c *Catalog) Albums() []Album {
	if c == nil {
		return nil
	}
	albums := make([]Album, 0, len(c.order))
	for _, id := range c.order {
		albums = append(albums, c.byID[id])
	}
	return albums
}

// First returns the first album added, which is what a player shows when no album is requested.
func (c *Catalog) First() (Album, bool) {
	if c == nil || len(c.order) == 0 {
		return Album{}, false
	}
	return c.byID[c.order[0]], true
}

// Len returns the number of albums.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
