package ui

import (
	"bytes"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"gitnotifier/pkg/models"
)

// RepositoryTable renders the configured repositories as an aligned table.
func RepositoryTable(repos []models.Repository) string {
	var buf bytes.Buffer
	WriteRepositoryTable(&buf, repos)
	return buf.String()
}

// WriteRepositoryTable writes the repository table to w.
func WriteRepositoryTable(w io.Writer, repos []models.Repository) {
	if len(repos) == 0 {
		_, _ = io.WriteString(w, color.YellowString("No repositories configured")+"\n")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Name", "Branch", "URL", "Commit path"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, repo := range repos {
		name := repo.Name
		if name == "" {
			name = color.HiBlackString("-")
		}
		table.Append([]string{
			strconv.Itoa(i),
			name,
			color.GreenString(repo.Branch),
			repo.URL,
			repo.CommitSubpath,
		})
	}

	table.Render()
}
