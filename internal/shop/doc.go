// Package shop implements the state machine of the demo storefront.
//
// A Session is one visitor: logged out or logged in, a cart seeded with
// three items, and a checkout flag. Derived values such as the item count
// and the total price are recomputed on every read so the cart can never
// disagree with itself.
//
// Session is not safe for concurrent use; the HTTP layer serialises access
// per session.
package shop
