package memory

import (
	"strconv"
	"time"

	"basegraph.app/issuesearch/internal/model"
)

// stringValues returns the values a document holds for a keyword field.
// Empty strings count as missing.
func stringValues(doc *model.IssueDoc, field string) []string {
	one := func(s string) []string {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	switch field {
	case model.FieldKey:
		return one(doc.Key)
	case model.FieldOrganizationUUID:
		return one(doc.OrganizationUUID)
	case model.FieldProjectUUID:
		return one(doc.ProjectUUID)
	case model.FieldBranchUUID:
		return one(doc.BranchUUID)
	case model.FieldComponentUUID:
		return one(doc.ComponentUUID)
	case model.FieldModuleUUID:
		return one(doc.ModuleUUID)
	case model.FieldModulePath:
		return doc.ModulePath
	case model.FieldDirectoryPath:
		return one(doc.DirectoryPath)
	case model.FieldFilePath:
		return one(doc.FilePath)
	case model.FieldRuleID:
		return one(doc.RuleID)
	case model.FieldLanguage:
		return one(doc.Language)
	case model.FieldType:
		return one(string(doc.Type))
	case model.FieldSeverity:
		return one(string(doc.Severity))
	case model.FieldStatus:
		return one(string(doc.Status))
	case model.FieldResolution:
		return one(string(doc.Resolution))
	case model.FieldAssigneeUUID:
		return one(doc.AssigneeUUID)
	case model.FieldAuthorLogin:
		return one(doc.AuthorLogin)
	case model.FieldTags:
		return doc.Tags
	case model.FieldOwaspTop10:
		return doc.OwaspTop10
	case model.FieldSansTop25:
		return doc.SansTop25
	case model.FieldCWE:
		return doc.CWE
	case model.FieldIsMainBranch:
		return []string{strconv.FormatBool(doc.IsMainBranch)}
	case model.FieldLine:
		if doc.Line == nil {
			return nil
		}
		return []string{strconv.Itoa(*doc.Line)}
	case model.FieldSeverityValue:
		if r := doc.Severity.Rank(); r > 0 {
			return []string{strconv.Itoa(r)}
		}
		return nil
	}
	if t, ok := timeValue(doc, field); ok {
		return []string{strconv.FormatInt(t.UnixMilli(), 10)}
	}
	return nil
}

func timeValue(doc *model.IssueDoc, field string) (time.Time, bool) {
	switch field {
	case model.FieldCreatedAt:
		return doc.CreatedAt, !doc.CreatedAt.IsZero()
	case model.FieldUpdatedAt:
		return doc.UpdatedAt, !doc.UpdatedAt.IsZero()
	case model.FieldClosedAt:
		if doc.ClosedAt == nil {
			return time.Time{}, false
		}
		return *doc.ClosedAt, true
	}
	return time.Time{}, false
}

// numericValue backs sorting and min/max on non-keyword fields.
func numericValue(doc *model.IssueDoc, field string) (float64, bool) {
	switch field {
	case model.FieldLine:
		if doc.Line == nil {
			return 0, false
		}
		return float64(*doc.Line), true
	case model.FieldSeverityValue:
		r := doc.Severity.Rank()
		return float64(r), r > 0
	}
	if t, ok := timeValue(doc, field); ok {
		return float64(t.UnixMilli()), true
	}
	return 0, false
}

func isNumeric(field string) bool {
	switch field {
	case model.FieldLine, model.FieldSeverityValue, model.FieldCreatedAt, model.FieldUpdatedAt, model.FieldClosedAt:
		return true
	}
	return false
}
