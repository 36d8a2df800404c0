package main

import (
	"strings"

	"github.com/spf13/cobra"

	"basegraph.app/issuesearch/internal/securitystandard"
)

var (
	flagProject    string
	flagBranches   []string
	flagStandard   string
	flagPortfolio  bool
	flagIncludeCWE bool
)

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "Count unresolved bugs, vulnerabilities and code smells per branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := current.index.SearchBranchStatistics(cmd.Context(), flagProject, flagBranches)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), stats)
	},
}

var securityReportCmd = &cobra.Command{
	Use:   "security-report <branch-or-portfolio-uuid>",
	Short: "Aggregate vulnerabilities and hotspots per security standard category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := current.index.GetSecurityStandardReport(cmd.Context(), flagStandard, args[0], flagPortfolio, flagIncludeCWE)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), stats)
	},
}

func registerReportFlags() {
	branchesCmd.Flags().StringVar(&flagProject, "project", "", "project uuid")
	branchesCmd.Flags().StringSliceVar(&flagBranches, "branches", nil, "non-main branch uuids")
	_ = branchesCmd.MarkFlagRequired("project")

	standards := []string{securitystandard.OwaspTop10, securitystandard.SansTop25}
	securityReportCmd.Flags().StringVar(&flagStandard, "standard", securitystandard.OwaspTop10, "security standard ("+strings.Join(standards, ", ")+")")
	securityReportCmd.Flags().BoolVar(&flagPortfolio, "portfolio", false, "treat the uuid as a portfolio")
	securityReportCmd.Flags().BoolVar(&flagIncludeCWE, "cwe", false, "break categories down by CWE")
}
