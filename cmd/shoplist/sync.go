package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shoplist/client"
)

// newSyncCmd creates the sync command with its subcommands.
func newSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay pending changes and pull server state",
		Long: `Replay the pending change queue against the server, then pull the
authoritative state and merge it into the local snapshot.

Queued changes replay in the order they were made. The first failure stops
the replay; the failed change and everything after it stay queued for the
next attempt.

Examples:
  shoplist sync            # Drain the queue and refresh
  shoplist sync status     # Show connectivity and queue counts
  shoplist sync queue      # Show the pending changes in replay order`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !application.client.Connected() {
				queue, err := application.client.Queue()
				if err != nil {
					return err
				}
				fmt.Printf("Offline: %d pending changes will sync when the server is reachable.\n", len(queue))
				return nil
			}

			before, err := application.client.Queue()
			if err != nil {
				return err
			}

			fmt.Println("Syncing...")
			drainErr := application.client.Drain(cmd.Context())

			after, err := application.client.Queue()
			if err != nil {
				return err
			}

			fmt.Printf("Replayed %d of %d pending changes.\n", len(before)-len(after), len(before))
			if drainErr != nil {
				return fmt.Errorf("sync stopped: %w (%d changes still queued)", drainErr, len(after))
			}
			fmt.Println("Local snapshot is up to date.")
			return nil
		},
	}

	syncCmd.AddCommand(newSyncStatusCmd())
	syncCmd.AddCommand(newSyncQueueCmd())
	return syncCmd
}

// newSyncStatusCmd creates the 'sync status' command.
func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := application.client.Queue()
			if err != nil {
				return err
			}
			snap, err := application.client.Snapshot()
			if err != nil {
				return err
			}

			fmt.Println("\n=== Sync Status ===")
			if application.client.Connected() {
				fmt.Println("Connection: Online")
			} else {
				fmt.Println("Connection: Offline")
			}
			fmt.Printf("Engine: %s\n", application.client.State())
			fmt.Printf("Lists: %d\n", len(snap.Lists))
			fmt.Printf("Pending changes: %d\n", len(queue))
			fmt.Printf("Unconfirmed entries: %d\n", snap.PendingCount())
			if lastErr := application.client.LastError(); lastErr != nil {
				fmt.Printf("Last sync error: %v\n", lastErr)
			}
			fmt.Println()
			return nil
		},
	}
}

// newSyncQueueCmd creates the 'sync queue' command.
func newSyncQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show pending changes in replay order",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := application.client.Queue()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				fmt.Println("No pending changes")
				return nil
			}

			fmt.Printf("\nPending changes (%d):\n\n", len(queue))
			for i, act := range queue {
				fmt.Printf("  %d. %s\n", i+1, describeAction(act))
				fmt.Printf("     Created: %s (%s ago)\n",
					act.CreatedAt.Format("2006-01-02 15:04:05"), formatAge(act.CreatedAt))
			}
			fmt.Println()
			return nil
		},
	}
}

func describeAction(act client.Action) string {
	m, err := act.Mutation()
	if err != nil {
		return fmt.Sprintf("%s (undecodable: %v)", act.Kind, err)
	}

	switch v := m.(type) {
	case client.AddList:
		return fmt.Sprintf("create list '%s'", v.Name)
	case client.DeleteList:
		return fmt.Sprintf("delete list %s", v.ListID)
	case client.TogglePrivacy:
		if v.IsPublic {
			return fmt.Sprintf("make list %s public", v.ListID)
		}
		return fmt.Sprintf("make list %s private", v.ListID)
	case client.UpdateSharing:
		return fmt.Sprintf("update sharing of list %s (%d members)", v.ListID, len(v.SharedWith))
	case client.AddItem:
		return fmt.Sprintf("add item '%s' to list %s", v.Name, v.ListID)
	case client.DeleteItem:
		return fmt.Sprintf("delete item %s from list %s", v.ItemID, v.ListID)
	case client.ToggleItem:
		if v.Done {
			return fmt.Sprintf("mark item %s done", v.ItemID)
		}
		return fmt.Sprintf("mark item %s open", v.ItemID)
	case client.UpdateComment:
		return fmt.Sprintf("set comment on item %s", v.ItemID)
	case client.UpdateQuantity:
		return fmt.Sprintf("set quantity of item %s", v.ItemID)
	default:
		return string(act.Kind)
	}
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
