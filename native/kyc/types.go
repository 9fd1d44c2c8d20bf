package kyc

import "fmt"

// ComplianceStatus enumerates the lifecycle states a user's compliance review
// can be in. The zero value is Pending, matching the default record for an
// unknown user.
type ComplianceStatus uint8

const (
	StatusPending ComplianceStatus = iota
	StatusApproved
	StatusRejected
	StatusSuspended
)

// Valid reports whether s is one of the known compliance states.
func (s ComplianceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended:
		return true
	default:
		return false
	}
}

func (s ComplianceStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Record is the per-user KYC record. The default record for a user with no
// stored entry is {Verified: false, Status: StatusPending}.
type Record struct {
	Verified bool
	Status   ComplianceStatus
}

// Tradable reports whether the record satisfies the platform's purchase gate:
// verified and approved.
func (r Record) Tradable() bool {
	return r.Verified && r.Status == StatusApproved
}

// ParseComplianceStatus parses the lowercase string form produced by String,
// for config files and CLI fixtures that specify compliance status by name.
func ParseComplianceStatus(s string) (ComplianceStatus, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	case "suspended":
		return StatusSuspended, nil
	default:
		return 0, fmt.Errorf("kyc: unknown compliance status %q", s)
	}
}

func defaultRecord() Record {
	return Record{Verified: false, Status: StatusPending}
}
