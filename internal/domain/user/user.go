// Package user holds the account domain type, roles, and the explicit
// identity passed into every authenticated operation.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Roles an account can carry.
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

var (
	// ErrNotFound is returned when a user id or email does not resolve.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when signup hits the unique email constraint.
	ErrEmailTaken = errors.New("email already registered")
)

// Identity is the authenticated caller, resolved by the auth middleware and
// handed to operations as an explicit parameter rather than ambient state.
type Identity struct {
	UserID string
	Role   string
}

// Elevated reports whether the identity may perform admin/manager actions.
func (i Identity) Elevated() bool {
	return i.Role == RoleAdmin || i.Role == RoleManager
}

// Address is one saved shipping address. Orders snapshot the same shape.
type Address struct {
	ID         string `json:"id"`
	Alias      string `json:"alias"`
	Details    string `json:"details"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// User is an account document. Wishlist holds product ids with set
// semantics; Addresses are embedded. The password reset fields live here so
// a failed reset email can roll them back in one write.
type User struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Slug                string     `json:"slug"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Phone               string     `json:"phone,omitempty"`
	ProfilePicture      string     `json:"profilePicture,omitempty"`
	Role                string     `json:"role"`
	Active              bool       `json:"active"`
	Wishlist            []string   `json:"wishlist"`
	Addresses           []Address  `json:"addresses"`
	PasswordChangedAt   *time.Time `json:"-"`
	ResetTokenHash      string     `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	ResetVerified       bool       `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// AddToWishlist appends the product id unless already present.
func (u *User) AddToWishlist(productID string) {
	for _, id := range u.Wishlist {
		if id == productID {
			return
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
}

// RemoveFromWishlist deletes the product id if present.
func (u *User) RemoveFromWishlist(productID string) {
	for i, id := range u.Wishlist {
		if id == productID {
			u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
			return
		}
	}
}

// AddAddress appends a saved address.
func (u *User) AddAddress(a Address) {
	u.Addresses = append(u.Addresses, a)
}

// RemoveAddress deletes the address with the given id if present.
func (u *User) RemoveAddress(addressID string) {
	for i, a := range u.Addresses {
		if a.ID == addressID {
			u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
			return
		}
	}
}

// Repository defines persistence for user accounts. List returns one page of
// accounts, newest first, plus the total count.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
