package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"strconv"

	apperrors "github.com/furnacestore/storefront/pkg/errors"
)

// Cart maps product ids to quantities. It is held by the client and sent
// with every request, so it carries no identity of its own. Iteration follows
// the order keys appeared in the decoded JSON object, with new keys appended.
//
// The zero value is an empty cart ready to use.
type Cart struct {
	order []int64
	qty   map[int64]int
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{qty: make(map[int64]int)}
}

// CartOf builds a cart from alternating id, quantity pairs. It panics on an
// odd number of arguments and is meant for tests and fixtures.
func CartOf(pairs ...int64) *Cart {
	if len(pairs)%2 != 0 {
		panic("domain.CartOf: odd number of arguments")
	}
	c := NewCart()
	for i := 0; i < len(pairs); i += 2 {
		c.Set(pairs[i], int(pairs[i+1]))
	}
	return c
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Get returns the quantity for productID and whether it is present.
func (c *Cart) Get(productID int64) (int, bool) {
	if c == nil {
		return 0, false
	}
	q, ok := c.qty[productID]
	return q, ok
}

// Has reports whether productID is a key of the cart.
func (c *Cart) Has(productID int64) bool {
	_, ok := c.Get(productID)
	return ok
}

// Set stores quantity for productID. A new key is appended to the order;
// an existing key keeps its position.
func (c *Cart) Set(productID int64, quantity int) {
	if c.qty == nil {
		c.qty = make(map[int64]int)
	}
	if _, ok := c.qty[productID]; !ok {
		c.order = append(c.order, productID)
	}
	c.qty[productID] = quantity
}

// Delete removes productID and reports whether it was present.
func (c *Cart) Delete(productID int64) bool {
	if !c.Has(productID) {
		return false
	}
	delete(c.qty, productID)
	if i := slices.Index(c.order, productID); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	return true
}

// Keys returns the product ids in iteration order.
func (c *Cart) Keys() []int64 {
	if c == nil {
		return []int64{}
	}
	return slices.Clone(c.order)
}

// All iterates over product id and quantity pairs in order.
func (c *Cart) All() iter.Seq2[int64, int] {
	return func(yield func(int64, int) bool) {
		if c == nil {
			return
		}
		for _, id := range c.order {
			if !yield(id, c.qty[id]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	out := NewCart()
	for id, q := range c.All() {
		out.Set(id, q)
	}
	return out
}

// MarshalJSON encodes the cart as an object with decimal string keys,
// preserving order.
func (c *Cart) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for id, q := range c.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteByte('"')
		buf.WriteString(strconv.FormatInt(id, 10))
		buf.WriteString(`":`)
		buf.WriteString(strconv.Itoa(q))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of product id to quantity. Keys must
// be positive decimal integers and values non-negative integers. A repeated
// key keeps its first position and takes the last value.
func (c *Cart) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return cartError("must be a JSON object")
	}
	if tok == nil {
		*c = Cart{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return cartError("must be a JSON object")
	}

	out := NewCart()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return cartError("must be a JSON object")
		}
		key, _ := tok.(string)
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			return cartError(fmt.Sprintf("key %q must be a positive integer product id", key))
		}

		tok, err = dec.Token()
		if err != nil {
			return cartError("must be a JSON object")
		}
		num, ok := tok.(json.Number)
		if !ok {
			return cartError(fmt.Sprintf("quantity for product %d must be an integer", id))
		}
		q, err := strconv.Atoi(num.String())
		if err != nil {
			return cartError(fmt.Sprintf("quantity for product %d must be an integer", id))
		}
		if q < 0 {
			return cartError(fmt.Sprintf("quantity for product %d must be greater than or equal to 0", id))
		}
		out.Set(id, q)
	}

	if _, err := dec.Token(); err != nil {
		return cartError("must be a JSON object")
	}

	*c = *out
	return nil
}

func cartError(reason string) error {
	return apperrors.Validation("cart", reason)
}

// CartEntry is one hydrated cart line.
type CartEntry struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	ImageRef  *string `json:"imageRef,omitempty"`
}

// CartView is the hydrated form of a cart. Count always equals len(Entries).
type CartView struct {
	Entries []CartEntry `json:"entries"`
	Count   int         `json:"count"`
}
