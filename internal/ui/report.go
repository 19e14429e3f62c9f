package ui

import (
	"fmt"
	"io"
)

// WriteReportHeader opens the report block for one polled repository. It is
// written after every successful poll, also when nothing is new.
func WriteReportHeader(w io.Writer, repoURL string, count int) error {
	_, err := fmt.Fprintf(w, "\n\n\n%d new messages for: %s\n\n", count, repoURL)
	return err
}

// WriteReportCommit writes one commit of the report: its subject and permalink.
func WriteReportCommit(w io.Writer, subject, commitURL string) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n\n", subject, commitURL)
	return err
}
