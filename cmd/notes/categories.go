package main

import (
	"errors"
	"fmt"
	"strings"

	"note-taker/internal/workspace"

	"github.com/spf13/cobra"
)

var errNotesRemain = errors.New("category still has notes, pass --with-notes or --move-to")

func newCategoriesCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories", "cat"},
		Short:   "Manage categories",
	}
	cmd.AddCommand(
		newCategoryListCommand(c),
		newCategoryNewCommand(c),
		newCategoryRenameCommand(c),
		newCategoryRecolorCommand(c),
		newCategoryDeleteCommand(c),
	)
	return cmd
}

func themeFlagUsage() string {
	return "Theme, one of " + strings.Join(workspace.Themes, ", ")
}

func checkTheme(theme string) error {
	if !workspace.KnownTheme(theme) {
		return fmt.Errorf("unknown theme %q, want one of %s", theme, strings.Join(workspace.Themes, ", "))
	}
	return nil
}

func newCategoryListCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories with their note counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			counts := make(map[string]int)
			for _, n := range s.Notes().List() {
				counts[n.CategoryID]++
			}
			for _, cat := range s.Categories().List() {
				c.printf("%s  %s  %s\n", faint.Sprint(cat.ID), themed(cat.ThemeID, cat.Name), faint.Sprintf("%d", counts[cat.ID]))
			}
			if n := counts[""]; n > 0 {
				c.printf("%s\n", faint.Sprintf("%d uncategorized", n))
			}
			return nil
		},
	}
}

func newCategoryNewCommand(c *cli) *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := checkTheme(theme); err != nil {
				return err
			}
			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}

			cat, created := s.Categories().Create()
			renamed := s.Categories().Rename(cat.ID, args[0])
			recolored := s.Categories().Recolor(cat.ID, theme)
			for _, p := range []*workspace.Pending{created, renamed, recolored} {
				if _, err := p.Wait(ctx); err != nil {
					return err
				}
			}
			id, _ := created.Wait(ctx)
			c.printf("%s created category %s %s\n", ok.Sprint("✔"), themed(theme, args[0]), faint.Sprint(id))
			return nil
		},
	}
	cmd.Flags().StringVar(&theme, "theme", workspace.DefaultTheme, themeFlagUsage())
	return cmd
}

func newCategoryRenameCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rename CATEGORY NAME",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			cat, err := findCategory(s, args[0])
			if err != nil {
				return err
			}
			if _, err := s.Categories().Rename(cat.ID, args[1]).Wait(ctx); err != nil {
				return err
			}
			c.printf("%s renamed %s to %s\n", ok.Sprint("✔"), cat.Name, themed(cat.ThemeID, strings.TrimSpace(args[1])))
			return nil
		},
	}
}

func newCategoryRecolorCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "recolor CATEGORY THEME",
		Short: "Change a category's theme",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := checkTheme(args[1]); err != nil {
				return err
			}
			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			cat, err := findCategory(s, args[0])
			if err != nil {
				return err
			}
			if _, err := s.Categories().Recolor(cat.ID, args[1]).Wait(ctx); err != nil {
				return err
			}
			c.printf("%s %s is now %s\n", ok.Sprint("✔"), themed(args[1], cat.Name), args[1])
			return nil
		},
	}
}

func newCategoryDeleteCommand(c *cli) *cobra.Command {
	var (
		withNotes bool
		moveTo    string
		noteRefs  []string
	)
	cmd := &cobra.Command{
		Use:   "delete CATEGORY",
		Short: "Delete a category, deleting or moving its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			cat, err := findCategory(s, args[0])
			if err != nil {
				return err
			}
			affected := s.Coordinator().Affected(cat.ID)
			if len(affected) > 0 && !withNotes && moveTo == "" {
				return errNotesRemain
			}

			attempt, err := s.Coordinator().Begin(cat.ID)
			if err != nil {
				return err
			}
			if err := attempt.Open(); err != nil {
				return err
			}

			var target workspace.Category
			if moveTo != "" {
				if target, err = findCategory(s, moveTo); err != nil {
					return err
				}
				if err := attempt.SelectTarget(target.ID); err != nil {
					return err
				}
				if len(noteRefs) > 0 {
					ids, err := findNotes(s, noteRefs)
					if err != nil {
						return err
					}
					if err := attempt.Select(ids); err != nil {
						return err
					}
				}
			} else if err := attempt.ChooseDeleteAll(); err != nil {
				return err
			}

			p, err := attempt.Commit()
			if err != nil {
				return err
			}
			if _, err := p.Wait(ctx); err != nil {
				return err
			}

			if moveTo != "" {
				c.printf("%s deleted %s, notes moved to %s\n", ok.Sprint("✔"), cat.Name, themed(target.ThemeID, target.Name))
			} else {
				c.printf("%s deleted %s and %d note(s)\n", ok.Sprint("✔"), cat.Name, len(affected))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withNotes, "with-notes", false, "Delete the category's notes too")
	cmd.Flags().StringVar(&moveTo, "move-to", "", "Move the category's notes to this category")
	cmd.Flags().StringSliceVar(&noteRefs, "notes", nil, "With --move-to, only move these notes")
	cmd.MarkFlagsMutuallyExclusive("with-notes", "move-to")
	return cmd
}
