// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"strings"
)

// renderReport formats the session outcome as a Markdown execution report.
// The engine never returns silently-empty success: a completed session
// with no findings still reports the low-yield outcome, and a failed
// session reports the failure detail alongside any partial findings.
func renderReport(sess *Session, failure error) string {
	m := sess.Metrics()
	findings := strings.TrimSpace(strings.Join(sess.DrainResults(), "\n\n"))

	var b strings.Builder
	b.WriteString("# Research Report\n\n")

	b.WriteString("## Execution summary\n")
	fmt.Fprintf(&b, "- Query: %s\n", sess.Query)
	fmt.Fprintf(&b, "- Search attempts: %d\n", sess.SearchAttempts+1)
	fmt.Fprintf(&b, "- Papers found: %d\n", m.PapersFound)
	fmt.Fprintf(&b, "- Papers analyzed: %d\n", m.Succeeded)
	fmt.Fprintf(&b, "- Analysis success rate: %.0f%%\n", m.SuccessRate()*100)

	if failure != nil {
		b.WriteString("\n## Failure\n")
		fmt.Fprintf(&b, "%v\n", failure)
		if findings != "" && findings != EmptySynthesis {
			b.WriteString("\n## Partial findings\n")
			b.WriteString(findings)
			b.WriteString("\n")
		}
		return b.String()
	}

	if findings == "" || findings == EmptySynthesis {
		b.WriteString("\n## Findings\n")
		fmt.Fprintf(&b, "No papers directly relevant to the query were found after %d search attempts.\n", sess.SearchAttempts+1)
		b.WriteString("\nSuggestions:\n")
		b.WriteString("1. Try more general or adjacent keywords.\n")
		b.WriteString("2. Broaden the search to related research fields.\n")
		b.WriteString("3. Check whether the query is too specific.\n")
		return b.String()
	}

	if m.Processed > 0 && m.SuccessRate() < 0.5 {
		b.WriteString("\nNote: analysis success rate was low; findings may be incomplete.\n")
	}

	b.WriteString("\n## Findings\n")
	b.WriteString(findings)
	b.WriteString("\n")
	return b.String()
}
