package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xxxsen/griffin/internal/tabs"
)

func loadTabs() (*tabs.Manager, error) {
	store, err := openState()
	if err != nil {
		return nil, err
	}
	return tabs.Load(store)
}

func newTabsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "manage open note tabs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list open tabs, the active one marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadTabs()
			if err != nil {
				return err
			}
			for _, tab := range m.List() {
				marker := " "
				if tab.NoteID == m.ActiveID() {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", marker, tab.NoteID, tab.Title)
			}
			return nil
		},
	}

	var title string
	openCmd := &cobra.Command{
		Use:   "open <note-id>",
		Short: "open a note in a tab, or activate it if already open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openState()
			if err != nil {
				return err
			}
			if title == "" {
				api, err := newAPIClient(store)
				if err != nil {
					return err
				}
				note, err := api.GetNote(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				title = note.Title
			}
			m, err := tabs.Load(store)
			if err != nil {
				return err
			}
			tab, err := m.Open(args[0], title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "* %s\t%s\n", tab.NoteID, tab.Title)
			return nil
		},
	}
	openCmd.Flags().StringVar(&title, "title", "", "tab title (fetched from the server when empty)")

	closeCmd := &cobra.Command{
		Use:   "close <note-id>",
		Short: "close a tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadTabs()
			if err != nil {
				return err
			}
			if err := m.Close(args[0]); err != nil {
				return err
			}
			if active := m.ActiveID(); active != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "active: %s\n", active)
			}
			return nil
		},
	}

	activateCmd := &cobra.Command{
		Use:   "activate <note-id>",
		Short: "switch to an open tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadTabs()
			if err != nil {
				return err
			}
			return m.Activate(args[0])
		},
	}

	cmd.AddCommand(listCmd, openCmd, closeCmd, activateCmd)
	return cmd
}
