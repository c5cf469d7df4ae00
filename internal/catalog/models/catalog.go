// Package models defines the product catalog records contracts reference:
// policies, catering options, and the categories and features that group
// them.
package models

// Policy is a sellable insurance product. Contracts reference it by its
// human-readable id (POL001, POL002, ...).
type Policy struct {
	ID          string   `json:"id" firestore:"-"`
	Name        string   `json:"name" firestore:"name"`
	Premium     float64  `json:"premium" firestore:"premium"`
	CoverAmount float64  `json:"coverAmount" firestore:"coverAmount"`
	Features    []string `json:"features" firestore:"features"`
	CategoryID  string   `json:"categoryId" firestore:"categoryId"`
}

// CateringOption is an add-on product a contract may carry any number of.
type CateringOption struct {
	ID         string   `json:"id" firestore:"-"`
	Name       string   `json:"name" firestore:"name"`
	Price      float64  `json:"price" firestore:"price"`
	CategoryID string   `json:"categoryId" firestore:"categoryId"`
	Features   []string `json:"features" firestore:"features"`
}

// Category groups policies and catering options for presentation.
type Category struct {
	ID          string `json:"id" firestore:"-"`
	Name        string `json:"name" firestore:"name"`
	Description string `json:"description,omitempty" firestore:"description"`
}

// Feature is a named capability referenced by policies and catering options.
type Feature struct {
	ID          string `json:"id" firestore:"-"`
	Name        string `json:"name" firestore:"name"`
	Description string `json:"description,omitempty" firestore:"description"`
}
