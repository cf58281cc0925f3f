package models

import "fmt"

// OwnerRef is the polymorphic key of the entity being verified, e.g. {Type: "user", ID: "42"}.
type OwnerRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (o OwnerRef) IsZero() bool {
	return o.Type == "" && o.ID == ""
}

func (o OwnerRef) String() string {
	return fmt.Sprintf("%s:%s", o.Type, o.ID)
}

// Owner is the caller's view of the owning entity, carrying the attributes the
// eligibility gates and simple verifications need.
type Owner struct {
	Ref           OwnerRef `json:"ref"`
	Email         string   `json:"email,omitempty"`
	EmailVerified bool     `json:"email_verified"`
}
