package model

import "time"

// Roles carried in the JWT "role" claim.
const (
    RoleCustomer = "CUSTOMER"
    RoleAdmin    = "ADMIN"
    RoleGuide    = "GUIDE"
)

// IsValidRole reports whether r is a known role name.
func IsValidRole(r string) bool {
    switch r {
    case RoleCustomer, RoleAdmin, RoleGuide:
        return true
    }
    return false
}

// User represents an application user record as stored in the `users`
// table.  Handlers never serialise it directly because it carries the
// password hash.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique, lower-cased email address.
//  Phone        – optional contact number.
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER, ADMIN or GUIDE.
//  IsActive     – whether the account may log in.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    Phone        string    // users.phone
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
