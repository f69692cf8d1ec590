package shop

import "strconv"

// State is the login state of a session.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

// CartItem is one line of the cart.
type CartItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal is UnitPrice times Quantity.
func (c CartItem) Subtotal() Money {
	return c.UnitPrice * Money(c.Quantity)
}

// SeedItems returns the cart every new or logged-out session starts with.
func SeedItems() []CartItem {
	return []CartItem{
		{ID: 1, Name: "Wireless Mouse", UnitPrice: Dollars(29, 99), Quantity: 1},
		{ID: 2, Name: "Mechanical Keyboard", UnitPrice: Dollars(49, 99), Quantity: 1},
		{ID: 3, Name: "USB-C Cable", UnitPrice: Dollars(19, 99), Quantity: 1},
	}
}

// Session is the application state of one visitor.
type Session struct {
	state             State
	user              string
	items             []CartItem
	checkoutCompleted bool
}

// NewSession returns a logged-out session with the seed cart.
func NewSession() *Session {
	return &Session{state: LoggedOut, items: SeedItems()}
}

// State returns the login state.
func (s *Session) State() State { return s.state }

// User returns the email of the logged-in user, or "".
func (s *Session) User() string { return s.user }

// CheckoutCompleted reports whether checkout succeeded since the last reset.
func (s *Session) CheckoutCompleted() bool { return s.checkoutCompleted }

// Items returns a copy of the cart items in order.
func (s *Session) Items() []CartItem {
	out := make([]CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// ItemCount is the sum of quantities in the cart.
func (s *Session) ItemCount() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the sum of item subtotals in the cart.
func (s *Session) TotalPrice() Money {
	var total Money
	for _, it := range s.items {
		total += it.Subtotal()
	}
	return total
}

// Login moves the session to LoggedIn when both credentials are non-empty.
// Any credentials are accepted; there is no account store.
func (s *Session) Login(email, password string) error {
	if s.state == LoggedIn {
		return ErrAlreadyLoggedIn
	}
	if email == "" || password == "" {
		return &ValidationError{Message: MsgCredentialsRequired}
	}
	s.state = LoggedIn
	s.user = email
	return nil
}

// Logout moves the session to LoggedOut and resets the cart to the seed
// items and the checkout flag to false.
func (s *Session) Logout() error {
	if s.state != LoggedIn {
		return ErrNotLoggedIn
	}
	s.state = LoggedOut
	s.user = ""
	s.items = SeedItems()
	s.checkoutCompleted = false
	return nil
}

// RemoveItem deletes the item with id. Removing an absent id is a no-op.
func (s *Session) RemoveItem(id int) error {
	if s.state != LoggedIn {
		return ErrNotLoggedIn
	}
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Checkout marks the cart as checked out. It is idempotent.
func (s *Session) Checkout() error {
	if s.state != LoggedIn {
		return ErrNotLoggedIn
	}
	if len(s.items) == 0 {
		return ErrEmptyCart
	}
	s.checkoutCompleted = true
	return nil
}

// CountLabel renders an item count as "3 items" or "1 item".
func CountLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}
