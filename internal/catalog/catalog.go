// Package catalog holds the read-only product catalog that shelf recommends
// from, and the sources it can be loaded from.
package catalog

import (
	"sort"
	"strings"

	"github.com/scbrown/shelf/internal/model"
)

// Catalog is an ordered, read-only sequence of products. It is built once
// with New and never mutated afterwards, so it is safe for concurrent readers.
// All accessors return copies.
type Catalog struct {
	products []model.Product
	folded   []string // lowercased names, parallel to products
}

// New builds a Catalog from products, copying them and stamping each
// Position with its index in the load order.
func New(products []model.Product) *Catalog {
	c := &Catalog{
		products: make([]model.Product, len(products)),
		folded:   make([]string, len(products)),
	}
	for i, p := range products {
		p.Position = i
		c.products[i] = p
		c.folded[i] = strings.ToLower(p.Name)
	}
	return c
}

// Empty returns a catalog with no products.
func Empty() *Catalog {
	return New(nil)
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// At returns the product at position i. It panics if i is out of range.
func (c *Catalog) At(i int) model.Product {
	return c.products[i]
}

// Products returns a copy of every product in load order.
func (c *Catalog) Products() []model.Product {
	return c.Head(c.Len())
}

// Head returns the first min(n, Len) products in load order.
func (c *Catalog) Head(n int) []model.Product {
	if n > c.Len() {
		n = c.Len()
	}
	if n <= 0 {
		return []model.Product{}
	}
	return append([]model.Product(nil), c.products[:n]...)
}

// Names returns every product name in load order.
func (c *Catalog) Names() []string {
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.products[i].Name
	}
	return out
}

// Tags returns every tag field in load order.
func (c *Catalog) Tags() []string {
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.products[i].Tags
	}
	return out
}

// Match returns the positions of products whose name contains query,
// compared case-insensitively, in catalog order. Surrounding whitespace in
// query is ignored; an empty query matches nothing.
func (c *Catalog) Match(query string) []int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var hits []int
	for i, name := range c.folded {
		if strings.Contains(name, q) {
			hits = append(hits, i)
		}
	}
	return hits
}

// FirstMatch returns the lowest position whose name contains query.
func (c *Catalog) FirstMatch(query string) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return -1, false
	}
	for i, name := range c.folded {
		if strings.Contains(name, q) {
			return i, true
		}
	}
	return -1, false
}

// Trending returns the top n products by rating, then review count, then
// load order.
func (c *Catalog) Trending(n int) []model.Product {
	out := c.Products()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ReviewCount > out[j].ReviewCount
	})
	if n < 0 {
		n = 0
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}
