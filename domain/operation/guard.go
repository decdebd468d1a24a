package operation

// ValidateName admits exactly the seven exposed operations. Matching is
// exact and case-sensitive.
func ValidateName(name string) ValidationResult {
	if Name(name).Known() {
		return Valid()
	}
	return Invalid(UnauthorizedMessage)
}
