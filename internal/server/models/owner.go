// Package models defines the data model of the storage engine: files,
// folders, shares and the owner sum type they all hang off.
package models

// OwnerKind discriminates the two possible owners of stored objects.
type OwnerKind string

const (
	OwnerUser         OwnerKind = "user"
	OwnerOrganization OwnerKind = "organization"
)

// Owner identifies the user or organization a file or folder belongs to.
// Exactly one kind is set at a time; the constructors keep invalid
// combinations unrepresentable.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// UserOwner returns an owner of kind user.
func UserOwner(id string) Owner {
	return Owner{Kind: OwnerUser, ID: id}
}

// OrganizationOwner returns an owner of kind organization.
func OrganizationOwner(id string) Owner {
	return Owner{Kind: OwnerOrganization, ID: id}
}

// IsZero reports whether the owner is unset.
func (o Owner) IsZero() bool {
	return o.ID == ""
}

// Namespace returns the owner's path prefix segment in the blob store,
// "users/<id>" or "organizations/<id>".
func (o Owner) Namespace() string {
	if o.Kind == OwnerOrganization {
		return "organizations/" + o.ID
	}
	return "users/" + o.ID
}
