package main

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"note-taker/internal/workspace"

	"github.com/fatih/color"
)

var themeColors = map[string]*color.Color{
	workspace.ThemeOrange: color.New(color.FgHiRed),
	workspace.ThemeYellow: color.New(color.FgYellow),
	workspace.ThemeGreen:  color.New(color.FgGreen),
	workspace.ThemeTeal:   color.New(color.FgCyan),
	workspace.ThemePeach:  color.New(color.FgHiYellow),
	workspace.ThemeBlue:   color.New(color.FgBlue),
	workspace.ThemePink:   color.New(color.FgHiMagenta),
}

var (
	faint = color.New(color.Faint)
	bold  = color.New(color.Bold)
	ok    = color.New(color.FgGreen)
)

const previewRunes = 60

// themed renders s in the color of theme; unknown themes fall back to the default.
func themed(theme, s string) string {
	return themeColors[workspace.ResolveTheme(theme)].Sprint(s)
}

func categoryLabel(cats map[string]workspace.Category, id string) string {
	if id == "" {
		return faint.Sprint("uncategorized")
	}
	cat, found := cats[id]
	if !found {
		return faint.Sprint("uncategorized")
	}
	return themed(cat.ThemeID, cat.Name)
}

func untitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return faint.Sprint("(untitled)")
	}
	return bold.Sprint(title)
}

// preview is the first non-blank line of content, cut to previewRunes.
func preview(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > previewRunes {
			r := []rune(line)
			return string(r[:previewRunes-1]) + "…"
		}
		return line
	}
	return ""
}

// humanTime prints today's times as a clock and older ones as a date.
func humanTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Local().Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("15:04")
	}
	if y1 == y2 {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}

func byID(cats []workspace.Category) map[string]workspace.Category {
	m := make(map[string]workspace.Category, len(cats))
	for _, c := range cats {
		m[c.ID] = c
	}
	return m
}

func noteLine(n workspace.Note, cats map[string]workspace.Category, now time.Time) string {
	line := fmt.Sprintf("%s  %s  %s  %s", faint.Sprint(n.ID), untitled(n.Title), categoryLabel(cats, n.CategoryID), faint.Sprint(humanTime(n.UpdatedAt, now)))
	if p := preview(n.Content); p != "" {
		line += "\n    " + p
	}
	return line
}
