package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"note-taker/internal/autosave"
	"note-taker/internal/workspace"

	"github.com/spf13/cobra"
)

func newNotesCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "List, write and organize notes",
	}
	cmd.AddCommand(
		newNoteListCommand(c),
		newNoteNewCommand(c),
		newNoteShowCommand(c),
		newNoteEditCommand(c),
		newNoteMoveCommand(c),
		newNoteDeleteCommand(c),
	)
	return cmd
}

func newNoteListCommand(c *cli) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notes, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if category != "" {
				cat, err := findCategory(s, category)
				if err != nil {
					return err
				}
				if err := s.Notes().SetFilter(cat.ID); err != nil {
					return err
				}
			}

			notes := s.Notes().Visible()
			if len(notes) == 0 {
				c.printf("%s\n", faint.Sprint("no notes"))
				return nil
			}
			cats := byID(s.Categories().List())
			now := time.Now()
			for _, n := range notes {
				c.printf("%s\n", noteLine(n, cats, now))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show notes of this category")
	return cmd
}

type noteFlags struct {
	title       string
	content     string
	contentFile string
	category    string
}

func (f *noteFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Note title")
	cmd.Flags().StringVarP(&f.content, "content", "m", "", "Note content")
	cmd.Flags().StringVarP(&f.contentFile, "content-file", "f", "", "Read the content from a file")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category name or id, \"none\" to uncategorize")
	cmd.MarkFlagsMutuallyExclusive("content", "content-file")
}

// apply runs the changed flags through an autosave editor open on n and
// waits for the resulting save.
func (f *noteFlags) apply(ctx context.Context, c *cli, cmd *cobra.Command, s *workspace.Session, n workspace.Note) error {
	ed := autosave.NewEditor(s.Notes(), s.Bus(), autosave.Config{Quiet: c.cfg.AutosaveQuiet(), Logger: c.log})
	defer ed.Stop()
	ed.Open(n)

	if cmd.Flags().Changed("title") {
		if err := ed.SetTitle(f.title); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("content") {
		if err := ed.SetContent(f.content); err != nil {
			return err
		}
	}
	if f.contentFile != "" {
		b, err := os.ReadFile(f.contentFile)
		if err != nil {
			return err
		}
		if err := ed.SetContent(string(b)); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("category") {
		id := ""
		if f.category != "none" && f.category != "" {
			cat, err := findCategory(s, f.category)
			if err != nil {
				return err
			}
			id = cat.ID
		}
		if err := ed.SetCategory(id); err != nil {
			return err
		}
	}
	return ed.Close(ctx)
}

func newNoteNewCommand(c *cli) *cobra.Command {
	var f noteFlags
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Write a new note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}

			n, created := s.Notes().Create()
			if err := f.apply(ctx, c, cmd, s, n); err != nil {
				return err
			}
			id, err := created.Wait(ctx)
			if err != nil {
				return err
			}
			c.printf("%s created note %s\n", ok.Sprint("✔"), id)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newNoteShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			n, err := findNote(s, args[0])
			if err != nil {
				return err
			}
			cats := byID(s.Categories().List())
			c.printf("%s\n%s  %s\n\n%s\n", untitled(n.Title), categoryLabel(cats, n.CategoryID),
				faint.Sprintf("updated %s", n.UpdatedAt.Local().Format(time.RFC822)), n.Content)
			return nil
		},
	}
}

func newNoteEditCommand(c *cli) *cobra.Command {
	var f noteFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a note's title, content or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			n, err := findNote(s, args[0])
			if err != nil {
				return err
			}
			if err := f.apply(ctx, c, cmd, s, n); err != nil {
				return err
			}
			c.printf("%s saved note %s\n", ok.Sprint("✔"), n.ID)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newNoteMoveCommand(c *cli) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "move ID...",
		Short: "Move notes to another category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			target, err := findCategory(s, to)
			if err != nil {
				return err
			}
			ids, err := findNotes(s, args)
			if err != nil {
				return err
			}
			if _, err := s.Notes().MoveNotes(ids, target.ID).Wait(ctx); err != nil {
				return err
			}
			c.printf("%s moved %d note(s) to %s\n", ok.Sprint("✔"), len(ids), themed(target.ThemeID, target.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Target category name or id")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newNoteDeleteCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete notes",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			ids, err := findNotes(s, args)
			if err != nil {
				return err
			}
			pending := make([]*workspace.Pending, 0, len(ids))
			for _, id := range ids {
				pending = append(pending, s.Notes().Delete(id))
			}
			for i, p := range pending {
				if _, err := p.Wait(ctx); err != nil {
					return fmt.Errorf("delete %s: %w", ids[i], err)
				}
			}
			c.printf("%s deleted %d note(s)\n", ok.Sprint("✔"), len(ids))
			return nil
		},
	}
}
