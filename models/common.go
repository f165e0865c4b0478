// Package models holds the JMAP resource records exchanged by the methods
// package: mail (RFC 8621), submission, vacation responses and Fastmail
// masked email.
package models

import (
	"github.com/rs/xid"
)

// Operator combines filter conditions.
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
	OperatorNot Operator = "NOT"
)

// Filter is a query filter: a condition record or a FilterOperator.
type Filter interface {
	isFilter()
}

// FilterOperator applies Operator to Conditions.
type FilterOperator struct {
	Operator   Operator `jmap:"operator,required"`
	Conditions []Filter `jmap:"conditions,required"`
}

func (FilterOperator) isFilter() {}

// And combines filters with AND.
func And(conditions ...Filter) FilterOperator {
	return FilterOperator{Operator: OperatorAnd, Conditions: conditions}
}

// Or combines filters with OR.
func Or(conditions ...Filter) FilterOperator {
	return FilterOperator{Operator: OperatorOr, Conditions: conditions}
}

// Not negates the union of filters.
func Not(conditions ...Filter) FilterOperator {
	return FilterOperator{Operator: OperatorNot, Conditions: conditions}
}

// EmailAddress is a display name and address pair.
type EmailAddress struct {
	Name  *string `jmap:"name"`
	Email *string `jmap:"email"`
}

// Address builds an EmailAddress; an empty name is left out.
func Address(name, email string) EmailAddress {
	out := EmailAddress{Email: &email}
	if name != "" {
		out.Name = &name
	}
	return out
}

// Comparator sorts query results.
type Comparator struct {
	Property    string `jmap:"property,required"`
	IsAscending bool   `jmap:"isAscending"`
	Collation   string `jmap:"collation,omitempty"`
}

// Ascending sorts by property, smallest first.
func Ascending(property string) Comparator {
	return Comparator{Property: property, IsAscending: true}
}

// Descending sorts by property, largest first.
func Descending(property string) Comparator {
	return Comparator{Property: property}
}

// SetError explains why a create, update or destroy was rejected.
type SetError struct {
	Type        string   `jmap:"type,required"`
	Description *string  `jmap:"description"`
	Properties  []string `jmap:"properties"`
}

// AddedItem is one insertion reported by /queryChanges.
type AddedItem struct {
	ID    string `jmap:"id,required"`
	Index int64  `jmap:"index,required"`
}

// NewCreationID returns a client-side creation id for /set create maps.
func NewCreationID() string {
	return "c" + xid.New().String()
}
