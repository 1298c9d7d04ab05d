package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"shoplist/client"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("240"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	commentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
)

// newListsCmd creates the 'lists' command showing the local snapshot.
func newListsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show all shopping lists",
		Long: `Show all shopping lists from the local snapshot.

Entries not yet confirmed by the server are marked with *. The snapshot is
local state only; run 'shoplist sync' to pull the latest server state.`,
		RunE: runLists,
	}
}

func runLists(cmd *cobra.Command, args []string) error {
	snap, err := application.client.Snapshot()
	if err != nil {
		return err
	}
	if len(snap.Lists) == 0 {
		fmt.Println("No lists yet. Create one with: shoplist add <name>")
		return nil
	}

	for i, list := range snap.Lists {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(renderList(list))
	}
	if pending := snap.PendingCount(); pending > 0 {
		fmt.Println()
		fmt.Println(metaStyle.Render(fmt.Sprintf("* %d entries awaiting sync", pending)))
	}
	return nil
}

// renderList renders one list with its items.
func renderList(list client.List) string {
	var b strings.Builder

	title := list.Name
	if !list.ID.Confirmed {
		title += " *"
	}
	b.WriteString(titleStyle.Render(title))

	var meta []string
	if list.IsPublic {
		meta = append(meta, "public")
	}
	if len(list.SharedWith) > 0 {
		meta = append(meta, "shared: "+strings.Join(list.SharedWith, ", "))
	}
	if len(meta) > 0 {
		b.WriteString(" " + metaStyle.Render("("+strings.Join(meta, "; ")+")"))
	}

	if len(list.Items) == 0 {
		b.WriteString("\n  " + metaStyle.Render("(empty)"))
		return b.String()
	}

	for _, it := range list.Items {
		b.WriteString("\n" + renderItem(it))
	}
	return b.String()
}

func renderItem(it client.Item) string {
	box := "[ ]"
	if it.Done {
		box = "[x]"
	}

	name := it.Name
	if it.Quantity != nil {
		name += fmt.Sprintf(" (%s)", formatQuantity(*it.Quantity))
	}
	if !it.ID.Confirmed {
		name += " *"
	}

	line := fmt.Sprintf("  %s %s", box, name)
	switch {
	case it.Done:
		line = doneStyle.Render(line)
	case !it.ID.Confirmed || it.Dirty:
		line = pendingStyle.Render(line)
	}

	if it.Comment != "" {
		line += "\n" + commentStyle.Render("      "+it.Comment)
	}
	return line
}

func formatQuantity(q client.Quantity) string {
	if q.Unit == "" {
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", q.Value), "0"), ".")
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", q.Value), "0"), ".") + " " + q.Unit
}
