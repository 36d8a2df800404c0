package example

type Severity string

const (
	SeverityMajor   Severity = "MAJOR"
	SeverityBlocker Severity = "BLOCKER"
)

type Status string

const (
	StatusOpen Status = "OPEN"
)

// Language has no constants, any value is accepted.
type Language string

type IssueDoc struct {
	Key      string
	Severity Severity
	Status   Status
	Language Language
}

func bad() {
	d := &IssueDoc{}
	d.Severity = "CRITICAL" // want "enum field Severity assigned string literal"
	d.Status = ("CLOSED")   // want "enum field Status assigned string literal"

	_ = IssueDoc{Severity: "MINOR"} // want "enum field Severity assigned string literal"
}

func good() {
	d := &IssueDoc{Key: "ISSUE-1"}
	d.Severity = SeverityBlocker
	d.Status = StatusOpen
	d.Language = "go"

	_ = IssueDoc{Severity: SeverityMajor, Language: "java"}
}

func alsoGood() {
	// Variable, not literal
	severity := SeverityMajor
	d := &IssueDoc{Severity: severity}
	_ = d
}
