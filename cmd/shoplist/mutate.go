package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shoplist/client"
	"shoplist/internal/utils"
)

// newAddCmd creates the 'add' command. With one argument it creates a list,
// with two it adds an item to an existing list.
func newAddCmd() *cobra.Command {
	var (
		public  bool
		qtyFlag string
		unit    string
	)

	cmd := &cobra.Command{
		Use:   "add <list> [item]",
		Short: "Create a list or add an item to one",
		Long: `Create a new list, or add an item to an existing list.

The change is applied locally right away. When connected it is sent to the
server immediately; otherwise it queues for the next sync.

Examples:
  shoplist add Groceries                      # Create a list
  shoplist add Party --public                 # Create a public list
  shoplist add Groceries Milk                 # Add an item
  shoplist add Groceries Flour --qty 2 --unit kg`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return addList(cmd, args[0], public)
			}
			return addItem(cmd, args[0], args[1], qtyFlag, unit)
		},
	}

	cmd.Flags().BoolVar(&public, "public", false, "Make the new list public")
	cmd.Flags().StringVar(&qtyFlag, "qty", "", "Item quantity (number)")
	cmd.Flags().StringVar(&unit, "unit", "", "Quantity unit (e.g. kg, l)")
	return cmd
}

func addList(cmd *cobra.Command, name string, public bool) error {
	if err := utils.ValidateName(name); err != nil {
		return err
	}
	if _, err := application.findListByName(name); err == nil {
		return fmt.Errorf("list '%s' already exists", name)
	}

	m := client.AddList{
		ListID:   client.NewTempID(),
		Name:     strings.TrimSpace(name),
		IsPublic: public,
		Owner:    application.client.UserID(),
	}
	if err := application.client.Submit(cmd.Context(), m); err != nil {
		return err
	}
	fmt.Printf("List '%s' created.\n", m.Name)
	return nil
}

func addItem(cmd *cobra.Command, listName, itemName, qtyFlag, unit string) error {
	if err := utils.ValidateName(itemName); err != nil {
		return err
	}
	list, err := application.findListByName(listName)
	if err != nil {
		return err
	}

	m := client.AddItem{
		ListID: list.ID,
		ItemID: client.NewTempID(),
		Name:   strings.TrimSpace(itemName),
	}
	if qtyFlag != "" {
		value, err := utils.ParseQuantityFlag(qtyFlag)
		if err != nil {
			return err
		}
		m.Quantity = &client.Quantity{Value: value, Unit: unit}
	} else if unit != "" {
		return fmt.Errorf("--unit requires --qty")
	}

	if err := application.client.Submit(cmd.Context(), m); err != nil {
		return err
	}
	fmt.Printf("Added '%s' to '%s'.\n", m.Name, list.Name)
	return nil
}

// newToggleCmd creates the 'toggle' command flipping an item's done state.
func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <list> <item>",
		Short: "Toggle an item between done and open",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, item, err := resolveItem(args[0], args[1])
			if err != nil {
				return err
			}

			m := client.ToggleItem{ListID: list.ID, ItemID: item.ID, Done: !item.Done}
			if err := application.client.Submit(cmd.Context(), m); err != nil {
				return err
			}
			state := "open"
			if m.Done {
				state = "done"
			}
			fmt.Printf("'%s' marked %s.\n", item.Name, state)
			return nil
		},
	}
}

// newRmCmd creates the 'rm' command deleting a list or an item.
func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <list> [item]",
		Short: "Delete a list or a single item",
		Long: `Delete a list, or one item from a list.

Deleting a list that was never synced is purely local. Deleting a synced
list removes it for every member once the change reaches the server.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := application.findListByName(args[0])
			if err != nil {
				return err
			}

			if len(args) == 1 {
				m := client.DeleteList{ListID: list.ID}
				if err := application.client.Submit(cmd.Context(), m); err != nil {
					return err
				}
				fmt.Printf("List '%s' deleted.\n", list.Name)
				return nil
			}

			item, err := application.findItemByName(list, args[1])
			if err != nil {
				return err
			}
			m := client.DeleteItem{ListID: list.ID, ItemID: item.ID}
			if err := application.client.Submit(cmd.Context(), m); err != nil {
				return err
			}
			fmt.Printf("Removed '%s' from '%s'.\n", item.Name, list.Name)
			return nil
		},
	}
}

// newCommentCmd creates the 'comment' command.
func newCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <list> <item> <text>",
		Short: "Set an item's comment",
		Long:  `Set an item's comment. An empty text clears it.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, item, err := resolveItem(args[0], args[1])
			if err != nil {
				return err
			}

			m := client.UpdateComment{ListID: list.ID, ItemID: item.ID, Comment: args[2]}
			if err := application.client.Submit(cmd.Context(), m); err != nil {
				return err
			}
			if m.Comment == "" {
				fmt.Printf("Comment cleared on '%s'.\n", item.Name)
			} else {
				fmt.Printf("Comment set on '%s'.\n", item.Name)
			}
			return nil
		},
	}
}

// newQtyCmd creates the 'qty' command.
func newQtyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qty <list> <item> <value> [unit]",
		Short: "Set an item's quantity",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, item, err := resolveItem(args[0], args[1])
			if err != nil {
				return err
			}

			value, err := utils.ParseQuantityFlag(args[2])
			if err != nil {
				return err
			}
			unit := ""
			if len(args) == 4 {
				unit = args[3]
			}

			m := client.UpdateQuantity{
				ListID:   list.ID,
				ItemID:   item.ID,
				Quantity: client.Quantity{Value: value, Unit: unit},
			}
			if err := application.client.Submit(cmd.Context(), m); err != nil {
				return err
			}
			fmt.Printf("Quantity of '%s' set to %s.\n", item.Name, formatQuantity(m.Quantity))
			return nil
		},
	}
}

// newShareCmd creates the 'share' command.
func newShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <list> <user>...",
		Short: "Share a list with other users",
		Long: `Share a list with other users. New users are added to the existing
member set; the owner always keeps access.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := application.findListByName(args[0])
			if err != nil {
				return err
			}

			members := append([]string(nil), list.SharedWith...)
			for _, user := range args[1:] {
				if user == "" || containsFold(members, user) {
					continue
				}
				members = append(members, user)
			}

			m := client.UpdateSharing{ListID: list.ID, SharedWith: members}
			if err := application.client.Submit(cmd.Context(), m); err != nil {
				return err
			}
			fmt.Printf("List '%s' shared with %s.\n", list.Name, strings.Join(args[1:], ", "))
			return nil
		},
	}
}

// newPrivateCmd creates the 'private' command controlling list visibility.
func newPrivateCmd() *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "private <list>",
		Short: "Make a list private (or public with --off)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := application.findListByName(args[0])
			if err != nil {
				return err
			}

			m := client.TogglePrivacy{ListID: list.ID, IsPublic: off}
			if err := application.client.Submit(cmd.Context(), m); err != nil {
				return err
			}
			if off {
				fmt.Printf("List '%s' is now public.\n", list.Name)
			} else {
				fmt.Printf("List '%s' is now private.\n", list.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&off, "off", false, "Make the list public instead")
	return cmd
}

func resolveItem(listName, itemName string) (client.List, client.Item, error) {
	list, err := application.findListByName(listName)
	if err != nil {
		return client.List{}, client.Item{}, err
	}
	item, err := application.findItemByName(list, itemName)
	if err != nil {
		return client.List{}, client.Item{}, err
	}
	return list, item, nil
}

func containsFold(ss []string, s string) bool {
	for _, v := range ss {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
