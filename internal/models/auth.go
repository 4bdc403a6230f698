package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles carried in access tokens.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// Identity is the authenticated caller resolved from an access token.
type Identity struct {
	UserID       primitive.ObjectID
	Role         string
	MerchantID   primitive.ObjectID
	BranchID     primitive.ObjectID
	IsMainBranch bool
}

// IsCustomer reports whether the identity is a customer.
func (i *Identity) IsCustomer() bool {
	return i.Role == RoleCustomer
}

// IsStaff reports whether the identity is merchant staff.
func (i *Identity) IsStaff() bool {
	return i.Role == RoleStaff
}
