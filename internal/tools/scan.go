package tools

import (
	"context"

	"github.com/simonyos/agentcore/internal/analysis"
	"github.com/simonyos/agentcore/internal/validate"
)

func (e *Executor) securityScan(_ context.Context, c *call) (string, error) {
	files, err := e.files(c, c.str("path"), analysis.ScansForSecurity)
	if err != nil {
		return "", err
	}
	sources, _ := e.readAll(c, files)
	var issues []analysis.SecurityIssue
	for _, f := range sources {
		issues = append(issues, analysis.ScanSecurity(f.Path, f.Content)...)
	}
	issues = analysis.FilterSeverity(issues, analysis.Severity(c.strOr("min_severity", string(analysis.SeverityLow))))
	return analysis.FormatSecurityReport(issues, len(sources)), nil
}

func (e *Executor) scanSecrets(_ context.Context, c *call) (string, error) {
	extra, err := analysis.CustomSecretPatterns(validate.SplitPatterns(c.str("custom_patterns")))
	if err != nil {
		return "", errorf(KindValidation, "%v", err)
	}
	files, err := e.files(c, c.str("path"), func(p string) bool {
		return !analysis.SkipForSecrets(p) && !isBinaryFile(p)
	})
	if err != nil {
		return "", err
	}
	sources, _ := e.readAll(c, files)
	var findings []analysis.SecretFinding
	for _, f := range sources {
		findings = append(findings, analysis.ScanSecrets(f.Path, f.Content, extra)...)
	}
	return analysis.FormatSecretReport(findings, len(sources)), nil
}

func (e *Executor) analyzePerformance(_ context.Context, c *call) (string, error) {
	files, err := e.files(c, c.str("path"), analysis.IsSource)
	if err != nil {
		return "", err
	}
	sources, _ := e.readAll(c, files)
	var hints []analysis.PerformanceHint
	for _, f := range sources {
		hints = append(hints, analysis.AnalyzePerformance(f.Path, f.Content, analysis.LanguageFor(f.Path))...)
	}
	return analysis.FormatPerformanceReport(hints, len(sources)), nil
}
