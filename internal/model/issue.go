package model

import "time"

type RuleType string

type Severity string

type Status string

type Resolution string

const (
	RuleTypeCodeSmell       RuleType = "CODE_SMELL"
	RuleTypeBug             RuleType = "BUG"
	RuleTypeVulnerability   RuleType = "VULNERABILITY"
	RuleTypeSecurityHotspot RuleType = "SECURITY_HOTSPOT"
)

const (
	SeverityInfo     Severity = "INFO"
	SeverityMinor    Severity = "MINOR"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
	SeverityBlocker  Severity = "BLOCKER"
)

const (
	StatusOpen      Status = "OPEN"
	StatusConfirmed Status = "CONFIRMED"
	StatusReopened  Status = "REOPENED"
	StatusResolved  Status = "RESOLVED"
	StatusClosed    Status = "CLOSED"
)

const (
	ResolutionFixed         Resolution = "FIXED"
	ResolutionFalsePositive Resolution = "FALSE-POSITIVE"
	ResolutionWontFix       Resolution = "WONTFIX"
	ResolutionRemoved       Resolution = "REMOVED"
)

// Severities lists severities from least to most severe.
var Severities = []Severity{SeverityInfo, SeverityMinor, SeverityMajor, SeverityCritical, SeverityBlocker}

var RuleTypes = []RuleType{RuleTypeCodeSmell, RuleTypeBug, RuleTypeVulnerability, RuleTypeSecurityHotspot}

var Statuses = []Status{StatusOpen, StatusConfirmed, StatusReopened, StatusResolved, StatusClosed}

var Resolutions = []Resolution{ResolutionFixed, ResolutionFalsePositive, ResolutionWontFix, ResolutionRemoved}

// Rank orders severities: INFO=1 up to BLOCKER=5. Unknown severities rank 0.
func (s Severity) Rank() int {
	for i, sev := range Severities {
		if sev == s {
			return i + 1
		}
	}
	return 0
}

func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// SeverityFromRank is the inverse of Severity.Rank.
func SeverityFromRank(rank int) (Severity, bool) {
	if rank < 1 || rank > len(Severities) {
		return "", false
	}
	return Severities[rank-1], true
}

func (t RuleType) Valid() bool {
	for _, rt := range RuleTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// IssueDoc is the denormalised issue document held by the search backend.
// Component hierarchy and security classifications are resolved at index time.
type IssueDoc struct {
	Key              string `json:"key"`
	OrganizationUUID string `json:"organizationUuid,omitempty"`
	ProjectUUID      string `json:"projectUuid"`
	// BranchUUID equals ProjectUUID for issues on the main branch.
	BranchUUID    string `json:"branchUuid"`
	IsMainBranch  bool   `json:"isMainBranch"`
	ComponentUUID string `json:"componentUuid"`
	ModuleUUID    string `json:"moduleUuid,omitempty"`
	// ModulePath lists every module above the component, from the project
	// root down to (and including) the component's own module.
	ModulePath    []string `json:"modulePath,omitempty"`
	DirectoryPath string   `json:"directoryPath,omitempty"`
	FilePath      string   `json:"filePath,omitempty"`
	Line          *int     `json:"line,omitempty"`

	RuleID   string   `json:"ruleId,omitempty"`
	Language string   `json:"language,omitempty"`
	Type     RuleType `json:"type"`
	Severity Severity `json:"severity"`
	Status   Status   `json:"status"`
	// Resolution is empty while the issue is unresolved.
	Resolution   Resolution `json:"resolution,omitempty"`
	AssigneeUUID string     `json:"assigneeUuid,omitempty"`
	AuthorLogin  string     `json:"authorLogin,omitempty"`
	Tags         []string   `json:"tags,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`

	// Nil means the issue was indexed before classifications existed.
	OwaspTop10 []string `json:"owaspTop10,omitempty"`
	SansTop25  []string `json:"sansTop25,omitempty"`
	CWE        []string `json:"cwe,omitempty"`
}

// BranchStatistics counts unresolved issues of a non-main branch by type.
type BranchStatistics struct {
	BranchUUID      string `json:"branchUuid"`
	Bugs            int64  `json:"bugs"`
	Vulnerabilities int64  `json:"vulnerabilities"`
	CodeSmells      int64  `json:"codeSmells"`
}
