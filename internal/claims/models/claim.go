// Package models defines the claim aggregate: the root record plus the four
// satellite records that share its key, each stored in its own collection.
package models

import (
	"time"
)

// Status is the claim lifecycle status. Transitions are caller-directed; the
// engine only enforces membership of the enum.
type Status string

const (
	StatusFNOL               Status = "FNOL"
	StatusUnderInvestigation Status = "under-investigation"
	StatusApproved           Status = "approved"
	StatusPaid               Status = "paid"
	StatusRejected           Status = "rejected"
)

// ValidStatus reports whether s is one of the five lifecycle statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusFNOL, StatusUnderInvestigation, StatusApproved, StatusPaid, StatusRejected:
		return true
	}
	return false
}

// Claim is the root record. ID is the document key (CLM...), not a stored
// field.
type Claim struct {
	ID             string    `json:"id" firestore:"-"`
	ContractNumber string    `json:"contractNumber" firestore:"contractNumber"`
	ClaimantName   string    `json:"claimantName" firestore:"claimantName"`
	Status         Status    `json:"status" firestore:"status"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// PolicySnapshot is a point-in-time copy of the policy at claim submission,
// not a live reference.
type PolicySnapshot struct {
	PolicyNumber   string  `json:"policyNumber" firestore:"policyNumber"`
	HolderName     string  `json:"holderName" firestore:"holderName"`
	CoverageAmount float64 `json:"coverageAmount" firestore:"coverageAmount"`
}

// DeceasedInfo is the optional deceased-details satellite.
type DeceasedInfo struct {
	FirstName    string    `json:"firstName" firestore:"firstName"`
	LastName     string    `json:"lastName" firestore:"lastName"`
	IDNumber     string    `json:"idNumber" firestore:"idNumber"`
	DateOfDeath  time.Time `json:"dateOfDeath" firestore:"dateOfDeath"`
	CauseOfDeath string    `json:"causeOfDeath" firestore:"causeOfDeath"`
	Relationship string    `json:"relationship" firestore:"relationship"`
}

// BankDetails is the payout account satellite.
type BankDetails struct {
	AccountHolder string `json:"accountHolder" firestore:"accountHolder"`
	BankName      string `json:"bankName" firestore:"bankName"`
	AccountNumber string `json:"accountNumber" firestore:"accountNumber"`
	BranchCode    string `json:"branchCode" firestore:"branchCode"`
}

// DocumentRef is one uploaded supporting document.
type DocumentRef struct {
	Type string `json:"type" firestore:"type"`
	URL  string `json:"url" firestore:"url"`
}

// DocumentSet is the ordered document list satellite.
type DocumentSet struct {
	Documents []DocumentRef `json:"documents" firestore:"documents"`
}

// MandatoryDocumentTypes must all be present when a claim is submitted.
// Further types are accepted as-is.
var MandatoryDocumentTypes = []string{
	"Death Certificate",
	"ID Document",
	"Bank Statement",
}

// AssembledClaim is the denormalized view the aggregation layer returns: the
// root enriched with every satellite. Optional satellites are nil when
// absent; the mandatory policy snapshot surfaces zero-valued when missing so
// assembly never fails on it.
type AssembledClaim struct {
	Claim
	Policy    PolicySnapshot `json:"policy"`
	Deceased  *DeceasedInfo  `json:"deceased,omitempty"`
	Bank      *BankDetails   `json:"bankDetails,omitempty"`
	Documents []DocumentRef  `json:"documents"`
}
