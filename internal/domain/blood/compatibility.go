// Package blood holds the ABO/Rh transfusion compatibility rules used by the
// matching engine. Everything here is a pure function over the 8 blood types;
// unknown or empty types are simply incompatible.
package blood

import "strings"

// The 8 ABO/Rh blood types.
const (
	OPos  = "O+"
	ONeg  = "O-"
	APos  = "A+"
	ANeg  = "A-"
	BPos  = "B+"
	BNeg  = "B-"
	ABPos = "AB+"
	ABNeg = "AB-"
)

// Types lists all valid blood types.
var Types = []string{OPos, ONeg, APos, ANeg, BPos, BNeg, ABPos, ABNeg}

// acceptableDonors maps a recipient type to the donor types it can receive
// from, per the standard transfusion table. O- is the universal donor; AB+
// the universal recipient.
var acceptableDonors = map[string][]string{
	ONeg:  {ONeg},
	OPos:  {OPos, ONeg},
	ANeg:  {ANeg, ONeg},
	APos:  {APos, ANeg, OPos, ONeg},
	BNeg:  {BNeg, ONeg},
	BPos:  {BPos, BNeg, OPos, ONeg},
	ABNeg: {ABNeg, ANeg, BNeg, ONeg},
	ABPos: {ABPos, ABNeg, APos, ANeg, BPos, BNeg, OPos, ONeg},
}

// ValidType reports whether t is one of the 8 ABO/Rh types.
func ValidType(t string) bool {
	_, ok := acceptableDonors[t]
	return ok
}

// IsCompatible reports whether blood of donorType can be transfused to a
// recipient of recipientType. Empty or unknown types are incompatible.
func IsCompatible(donorType, recipientType string) bool {
	if donorType == "" || recipientType == "" {
		return false
	}
	for _, accepted := range acceptableDonors[recipientType] {
		if accepted == donorType {
			return true
		}
	}
	return false
}

// Score rates a compatible pairing in [0,1]. Exact type matches score 1.0.
// A broad-acceptor recipient (AB+/AB-) scores 0.9 for non-identical donors,
// a universal donor (O+/O-) scores 0.85, and every other compatible pairing
// scores 0.8. Incompatible pairings score 0.
func Score(donorType, recipientType string) float64 {
	if !IsCompatible(donorType, recipientType) {
		return 0
	}
	switch {
	case donorType == recipientType:
		return 1.0
	case strings.HasPrefix(recipientType, "AB"):
		return 0.9
	case strings.HasPrefix(donorType, "O"):
		return 0.85
	default:
		return 0.8
	}
}
