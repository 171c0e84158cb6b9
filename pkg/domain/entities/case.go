package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PartNumber represents a spare-part identifier as written on the ticket
type PartNumber string

// Normalized returns the trimmed, upper-cased form used for price lookups
func (p PartNumber) Normalized() PartNumber {
	return PartNumber(strings.ToUpper(strings.TrimSpace(string(p))))
}

// Part is one consumed spare part on a work order
type Part struct {
	PartNumber PartNumber
	Name       string
}

// IsSentinel reports whether the part name is a spreadsheet checkbox value
// (TRUE/FALSE) rather than a real part.
func (p Part) IsSentinel() bool {
	switch strings.ToUpper(strings.TrimSpace(p.Name)) {
	case "TRUE", "FALSE":
		return true
	default:
		return false
	}
}

// Case is one reconciled work order
type Case struct {
	ID               string
	Engineer         string
	Client           string
	SerialNumber     string
	RawType          string
	ServiceType      ServiceType
	Model            string
	Status           string
	Requirement      string
	FaultDescription string

	// CompletionDate is date-only (UTC midnight); zero when unknown
	CompletionDate time.Time

	RawTAT           int
	TAT              int
	PendingDays      int
	BacklogDays      int
	ConstructionDays float64

	Revenue            decimal.Decimal
	ExternalRepairCost decimal.Decimal
	IsUnderWarranty    bool

	Parts  []Part
	Points float64

	IsRecall          bool
	RecallReason      string
	RecallReferenceID string
}

// NewCase creates a validated Case with zero metrics
func NewCase(id, engineer string) (*Case, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("case id cannot be empty")
	}
	if strings.TrimSpace(engineer) == "" {
		return nil, fmt.Errorf("engineer cannot be empty")
	}
	return &Case{
		ID:                 id,
		Engineer:           engineer,
		Revenue:            decimal.Zero,
		ExternalRepairCost: decimal.Zero,
		TAT:                1,
	}, nil
}

// IsDated reports whether the case has a resolvable completion date
func (c *Case) IsDated() bool {
	return !c.CompletionDate.IsZero()
}

// HasPart reports whether an identical (name, number) pair is already recorded
func (c *Case) HasPart(p Part) bool {
	for _, existing := range c.Parts {
		if existing.Name == p.Name && existing.PartNumber == p.PartNumber {
			return true
		}
	}
	return false
}

// AddPart appends p unless the same (name, number) pair is present.
// Returns true when the part was added.
func (c *Case) AddPart(p Part) bool {
	if c.HasPart(p) {
		return false
	}
	c.Parts = append(c.Parts, p)
	return true
}

// CountableParts returns the parts list without TRUE/FALSE sentinels
func (c *Case) CountableParts() []Part {
	out := make([]Part, 0, len(c.Parts))
	for _, p := range c.Parts {
		if !p.IsSentinel() {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy of the case
func (c *Case) Clone() *Case {
	clone := *c
	if c.Parts != nil {
		clone.Parts = make([]Part, len(c.Parts))
		copy(clone.Parts, c.Parts)
	}
	return &clone
}

// CloneCases deep-copies a case list, preserving order
func CloneCases(cases []*Case) []*Case {
	out := make([]*Case, len(cases))
	for i, c := range cases {
		out[i] = c.Clone()
	}
	return out
}
