package fences

// StillInvalid is appended to the report when repair did not yield valid fences.
const StillInvalid = "Still invalid after fix"

// EnsureFencedCode always runs FixCodeFences so valid input is normalized too.
// When the input fails validation the report starts with the validation issues,
// followed by the repair changes and, if the repaired text still fails
// validation, StillInvalid.
func EnsureFencedCode(text string, opts Options) (string, []string) {
	ok, issues := ValidateCodeFences(text)
	fixed, changes := FixCodeFences(text, opts)
	if ok {
		return fixed, changes
	}

	report := make([]string, 0, len(issues)+len(changes)+1)
	report = append(report, issues...)
	report = append(report, changes...)
	if stillOK, _ := ValidateCodeFences(fixed); !stillOK {
		report = append(report, StillInvalid)
	}
	return fixed, report
}
