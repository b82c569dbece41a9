package respond

// Cache stores responsive values by composite key. It is owned by a single
// Engine and is not safe for concurrent use on its own.
type Cache struct {
	values map[Key]string
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{values: make(map[Key]string)}
}

// Set stores value under (base, suffix), overwriting any previous value.
func (c *Cache) Set(base string, suffix Suffix, value string) {
	c.values[Key{Base: base, Suffix: suffix}] = value
}

// Get returns the value stored for exactly k. The boolean is false when no
// value is present; callers decide how to fall back.
func (c *Cache) Get(k Key) (string, bool) {
	v, ok := c.values[k]
	return v, ok
}

// Resolve returns the value for k, falling back to the default key for k's
// base when k has no value of its own.
func (c *Cache) Resolve(k Key) (string, bool) {
	if v, ok := c.values[k]; ok {
		return v, true
	}
	if k.IsDefault() {
		return "", false
	}
	v, ok := c.values[k.Default()]
	return v, ok
}

// Delete removes the value stored for k.
func (c *Cache) Delete(k Key) {
	delete(c.values, k)
}

// Rename moves every value stored under base from to base to, replacing
// values already held by to.
func (c *Cache) Rename(from, to string) {
	if from == to {
		return
	}
	for k, v := range c.values {
		if k.Base != from {
			continue
		}
		delete(c.values, k)
		c.values[Key{Base: to, Suffix: k.Suffix}] = v
	}
}

// Suffixes returns the breakpoint suffixes holding a value for base,
// excluding the default.
func (c *Cache) Suffixes(base string) []Suffix {
	var out []Suffix
	for _, s := range Suffixes {
		if _, ok := c.values[Key{Base: base, Suffix: s}]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of stored values.
func (c *Cache) Len() int {
	return len(c.values)
}
