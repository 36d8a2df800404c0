package model

// Document field names shared by the criteria compiler and the backends.
const (
	FieldKey              = "key"
	FieldOrganizationUUID = "organizationUuid"
	FieldProjectUUID      = "projectUuid"
	FieldBranchUUID       = "branchUuid"
	FieldIsMainBranch     = "isMainBranch"
	FieldComponentUUID    = "componentUuid"
	FieldModuleUUID       = "moduleUuid"
	FieldModulePath       = "modulePath"
	FieldDirectoryPath    = "directoryPath"
	FieldFilePath         = "filePath"
	FieldLine             = "line"
	FieldRuleID           = "ruleId"
	FieldLanguage         = "language"
	FieldType             = "type"
	FieldSeverity         = "severity"
	FieldSeverityValue    = "severityValue"
	FieldStatus           = "status"
	FieldResolution       = "resolution"
	FieldAssigneeUUID     = "assigneeUuid"
	FieldAuthorLogin      = "authorLogin"
	FieldTags             = "tags"
	FieldCreatedAt        = "createdAt"
	FieldUpdatedAt        = "updatedAt"
	FieldClosedAt         = "closedAt"
	FieldOwaspTop10       = "owaspTop10"
	FieldSansTop25        = "sansTop25"
	FieldCWE              = "cwe"
)

// GroupAnyone is the implicit group every caller, anonymous or not, belongs to.
const GroupAnyone = "Anyone"

// UnknownStandard tags issues whose rule has no mapping in a security standard.
const UnknownStandard = "unknown"
