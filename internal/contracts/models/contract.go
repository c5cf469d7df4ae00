// Package models defines the contract aggregate: the contract root, the
// shared member root with its satellites, and the role-tagged relationship
// edges joining the two.
package models

import (
	"time"
)

// Contract is the root record. ID is the store-assigned document key.
type Contract struct {
	ID                string    `json:"id" firestore:"-"`
	ContractNumber    string    `json:"contractNumber" firestore:"contractNumber"`
	PoliciesID        string    `json:"policiesId" firestore:"policiesId"`
	CateringOptionIDs []string  `json:"cateringOptionIds" firestore:"cateringOptionIds"`
	Status            string    `json:"status" firestore:"status"`
	CreatedAt         time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Member is a person shared across contracts. A member has no embedded role:
// role is purely a property of its relationship edges.
type Member struct {
	ID          string    `json:"id" firestore:"-"`
	IDNumber    string    `json:"idNumber" firestore:"idNumber"`
	FirstName   string    `json:"firstName" firestore:"firstName"`
	LastName    string    `json:"lastName" firestore:"lastName"`
	DateOfBirth time.Time `json:"dateOfBirth" firestore:"dateOfBirth"`
}

// ContactDetail is one entry of a member's contact list.
type ContactDetail struct {
	Type  string `json:"type" firestore:"type"`
	Value string `json:"value" firestore:"value"`
}

// ContactSet is the member contact-list satellite, keyed by member id.
type ContactSet struct {
	Contacts []ContactDetail `json:"contacts" firestore:"contacts"`
}

// Address is the member address satellite, keyed by member id.
type Address struct {
	Street     string `json:"street" firestore:"street"`
	City       string `json:"city" firestore:"city"`
	Province   string `json:"province" firestore:"province"`
	PostalCode string `json:"postalCode" firestore:"postalCode"`
}

// Role tags a member's relationship to one contract.
type Role string

const (
	RoleMainMember  Role = "Main Member"
	RoleDependent   Role = "Dependent"
	RoleBeneficiary Role = "Beneficiary"
)

// ValidRole reports whether r is a known relationship role.
func ValidRole(r Role) bool {
	switch r {
	case RoleMainMember, RoleDependent, RoleBeneficiary:
		return true
	}
	return false
}

// Relationship is a join record associating a member with a contract under a
// role. For a given contract number at most one edge carries RoleMainMember.
type Relationship struct {
	ID             string    `json:"id" firestore:"-"`
	MemberID       string    `json:"member_id" firestore:"member_id"`
	ContractNumber string    `json:"contract_number" firestore:"contract_number"`
	Role           Role      `json:"role" firestore:"role"`
	CreatedAt      time.Time `json:"created_at" firestore:"created_at"`
}

// ResolvedMember is a member enriched with its satellites and the role it
// holds on the resolved contract.
type ResolvedMember struct {
	Member
	Role     Role            `json:"role"`
	Contacts []ContactDetail `json:"contacts"`
	Address  *Address        `json:"address,omitempty"`
}

// ContractMembers partitions a contract's member set by role.
type ContractMembers struct {
	Main          *ResolvedMember  `json:"main,omitempty"`
	Dependents    []ResolvedMember `json:"dependents"`
	Beneficiaries []ResolvedMember `json:"beneficiaries"`
}

// AssembledContract is the denormalized contract view with members resolved.
type AssembledContract struct {
	Contract
	Members ContractMembers `json:"members"`
}
