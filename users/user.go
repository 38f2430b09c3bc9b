// Package users is a small data stack wired through graphdi: a DataSource
// producing User records, a Repository exposing them, and a ViewModel that
// loads them asynchronously and publishes observable state.
package users

import (
	"fmt"

	"github.com/google/uuid"
)

// userNamespace seeds the deterministic identifiers of generated users.
var userNamespace = uuid.MustParse("6f1c1c9e-4a8b-4f55-9d0e-2b7f6c3a9e10")

// User is an immutable domain record.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Age   int       `json:"age"`
}

// GenerateUsers returns n users. The same index always yields the same user.
func GenerateUsers(n int) []User {
	if n <= 0 {
		return []User{}
	}

	out := make([]User, n)
	for i := range out {
		key := fmt.Sprintf("user-%d", i+1)
		out[i] = User{
			ID:    uuid.NewSHA1(userNamespace, []byte(key)),
			Name:  fmt.Sprintf("User %d", i+1),
			Email: fmt.Sprintf("user%d@example.com", i+1),
			Age:   18 + i%60,
		}
	}
	return out
}
