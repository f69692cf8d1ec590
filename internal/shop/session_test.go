package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	require.NoError(t, s.Login("a@b.c", "x"))
	return s
}

func TestNewSession_Seed(t *testing.T) {
	s := NewSession()

	assert.Equal(t, LoggedOut, s.State())
	assert.False(t, s.CheckoutCompleted())
	assert.Equal(t, 3, s.ItemCount())
	assert.Equal(t, "$99.97", s.TotalPrice().String())

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Wireless Mouse", items[0].Name)
	assert.Equal(t, "Mechanical Keyboard", items[1].Name)
	assert.Equal(t, "USB-C Cable", items[2].Name)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"both present", "a@b.c", "x", false},
		{"canonical credentials", "user@shop.com", "password123", false},
		{"empty email", "", "x", true},
		{"empty password", "a@b.c", "", true},
		{"whitespace email", "   ", "x", false},
		{"whitespace password", "user@shop.com", "   ", false},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			err := s.Login(tt.email, tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, MsgCredentialsRequired, ve.Message)
				assert.Equal(t, LoggedOut, s.State())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, LoggedIn, s.State())
			assert.Equal(t, tt.email, s.User())
		})
	}
}

func TestLogin_TwiceIsRejected(t *testing.T) {
	s := loggedIn(t)
	assert.ErrorIs(t, s.Login("other@b.c", "y"), ErrAlreadyLoggedIn)
	assert.Equal(t, "a@b.c", s.User())
}

func TestRemoveItem(t *testing.T) {
	s := loggedIn(t)

	require.NoError(t, s.RemoveItem(1))
	assert.Equal(t, 2, s.ItemCount())
	assert.Equal(t, "$69.98", s.TotalPrice().String())

	// Absent id is a no-op.
	require.NoError(t, s.RemoveItem(42))
	assert.Equal(t, 2, s.ItemCount())

	require.NoError(t, s.RemoveItem(2))
	require.NoError(t, s.RemoveItem(3))
	assert.Equal(t, 0, s.ItemCount())
	assert.Equal(t, "$0.00", s.TotalPrice().String())
}

func TestRemoveItem_RequiresLogin(t *testing.T) {
	s := NewSession()
	assert.ErrorIs(t, s.RemoveItem(1), ErrNotLoggedIn)
	assert.Equal(t, 3, s.ItemCount())
}

func TestItems_ReturnsCopy(t *testing.T) {
	s := loggedIn(t)
	items := s.Items()
	items[0].Quantity = 10
	assert.Equal(t, 3, s.ItemCount())
}

func TestCheckout(t *testing.T) {
	s := loggedIn(t)

	require.NoError(t, s.Checkout())
	assert.True(t, s.CheckoutCompleted())

	// Idempotent.
	require.NoError(t, s.Checkout())
	assert.True(t, s.CheckoutCompleted())

	// The flag survives later cart changes.
	require.NoError(t, s.RemoveItem(1))
	assert.True(t, s.CheckoutCompleted())
}

func TestCheckout_EmptyCart(t *testing.T) {
	s := loggedIn(t)
	for _, it := range s.Items() {
		require.NoError(t, s.RemoveItem(it.ID))
	}
	assert.ErrorIs(t, s.Checkout(), ErrEmptyCart)
	assert.False(t, s.CheckoutCompleted())
}

func TestCheckout_RequiresLogin(t *testing.T) {
	assert.ErrorIs(t, NewSession().Checkout(), ErrNotLoggedIn)
}

func TestLogout_ResetsCart(t *testing.T) {
	s := loggedIn(t)
	require.NoError(t, s.RemoveItem(1))
	require.NoError(t, s.Checkout())

	require.NoError(t, s.Logout())
	assert.Equal(t, LoggedOut, s.State())
	assert.Empty(t, s.User())
	assert.False(t, s.CheckoutCompleted())
	assert.Equal(t, SeedItems(), s.Items())

	assert.ErrorIs(t, s.Logout(), ErrNotLoggedIn)
}

// withItems returns a logged-in session whose cart holds items.
func withItems(t *testing.T, items ...CartItem) *Session {
	t.Helper()
	s := loggedIn(t)
	s.items = items
	return s
}

func TestCartTotals(t *testing.T) {
	tests := []struct {
		name      string
		items     []CartItem
		wantCount int
		wantTotal string
	}{
		{"empty", nil, 0, "$0.00"},
		{"single line quantity one", []CartItem{
			{ID: 1, Name: "Pen", UnitPrice: Dollars(1, 50), Quantity: 1},
		}, 1, "$1.50"},
		{"single line quantity three", []CartItem{
			{ID: 1, Name: "Pen", UnitPrice: Dollars(1, 50), Quantity: 3},
		}, 3, "$4.50"},
		{"mixed quantities and prices", []CartItem{
			{ID: 1, Name: "Wireless Mouse", UnitPrice: Dollars(29, 99), Quantity: 2},
			{ID: 2, Name: "USB-C Cable", UnitPrice: Dollars(19, 99), Quantity: 3},
		}, 5, "$119.95"},
		{"zero quantity line", []CartItem{
			{ID: 1, Name: "Pen", UnitPrice: Dollars(1, 50), Quantity: 0},
			{ID: 2, Name: "Pad", UnitPrice: Dollars(3, 0), Quantity: 4},
		}, 4, "$12.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := withItems(t, tt.items...)
			assert.Equal(t, tt.wantCount, s.ItemCount())
			assert.Equal(t, tt.wantTotal, s.TotalPrice().String())

			var count int
			var total Money
			for _, it := range tt.items {
				count += it.Quantity
				total += it.UnitPrice * Money(it.Quantity)
			}
			assert.Equal(t, count, s.ItemCount())
			assert.Equal(t, total, s.TotalPrice())
		})
	}
}

func TestRemoveItem_DropsWholeLine(t *testing.T) {
	s := withItems(t,
		CartItem{ID: 1, Name: "Wireless Mouse", UnitPrice: Dollars(29, 99), Quantity: 2},
		CartItem{ID: 2, Name: "USB-C Cable", UnitPrice: Dollars(19, 99), Quantity: 3},
	)

	require.NoError(t, s.RemoveItem(2))
	assert.Equal(t, 2, s.ItemCount())
	assert.Equal(t, "$59.98", s.TotalPrice().String())
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "$0.00", Money(0).String())
	assert.Equal(t, "$0.05", Money(5).String())
	assert.Equal(t, "$29.99", Dollars(29, 99).String())
	assert.Equal(t, "$100.00", Dollars(100, 0).String())
	assert.Equal(t, "-$1.50", Money(-150).String())
}

func TestCountLabel(t *testing.T) {
	assert.Equal(t, "0 items", CountLabel(0))
	assert.Equal(t, "1 item", CountLabel(1))
	assert.Equal(t, "3 items", CountLabel(3))
}
