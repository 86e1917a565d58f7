// Package cli holds the habitctl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/habitstreak/internal/features/auth"
	"github.com/xyz-asif/habitstreak/internal/features/habits"
)

type Context struct {
	Ctx     context.Context
	Service *habits.Service
	Dev     *auth.DevTokenVerifier
	Out     io.Writer
}

type StreaksRefreshCmd struct{}

func (cmd *StreaksRefreshCmd) Run(c *Context) error {
	n, err := c.Service.RefreshStreaks(c.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "reset %d stale streaks\n", n)
	return nil
}

type HabitsFeaturedCmd struct {
	Limit int `help:"Number of habits to show." default:"6"`
}

func (cmd *HabitsFeaturedCmd) Run(c *Context) error {
	list, err := c.Service.Featured(c.Ctx, cmd.Limit)
	if err != nil {
		return err
	}
	return printHabits(c.Out, list)
}

type HabitsListCmd struct {
	Owner    string `help:"List every habit of this owner, private ones included."`
	Category string `help:"Filter the public feed by category."`
	Search   string `help:"Filter the public feed by title or description."`
}

func (cmd *HabitsListCmd) Run(c *Context) error {
	var (
		list []*habits.Habit
		err  error
	)
	if cmd.Owner != "" {
		list, err = c.Service.ListByOwner(c.Ctx, cmd.Owner)
	} else {
		category, perr := habits.ParseCategoryFilter(cmd.Category)
		if perr != nil {
			return perr
		}
		list, err = c.Service.ListPublic(c.Ctx, habits.FeedFilter{Category: category, Search: cmd.Search})
	}
	if err != nil {
		return err
	}
	return printHabits(c.Out, list)
}

type HabitsShowCmd struct {
	ID string `arg:"" help:"Habit id."`
	As string `help:"Read as this owner so private habits are visible."`
}

func (cmd *HabitsShowCmd) Run(c *Context) error {
	id, err := primitive.ObjectIDFromHex(cmd.ID)
	if err != nil {
		return fmt.Errorf("invalid habit id %q", cmd.ID)
	}
	habit, err := c.Service.GetByID(c.Ctx, auth.Caller{Email: auth.NormalizeEmail(cmd.As)}, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(habit)
}

type RemindersDueCmd struct {
	At string `help:"Time of day as HH:MM in the streak timezone. Defaults to now."`
}

func (cmd *RemindersDueCmd) Run(c *Context) error {
	at := time.Now()
	if cmd.At != "" {
		clock, err := time.ParseInLocation("15:04", cmd.At, c.Service.Location())
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", cmd.At, err)
		}
		now := at.In(c.Service.Location())
		at = time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, c.Service.Location())
	}
	list, err := c.Service.DueReminders(c.Ctx, at)
	if err != nil {
		return err
	}
	return printHabits(c.Out, list)
}

type TokenIssueCmd struct {
	Email string `arg:"" help:"Email to sign a development token for."`
	Name  string `help:"Display name."`
}

func (cmd *TokenIssueCmd) Run(c *Context) error {
	if c.Dev == nil {
		return fmt.Errorf("development tokens are disabled; set DEV_LOGIN_ENABLED outside production")
	}
	signed, err := c.Dev.Issue(auth.Caller{Email: auth.NormalizeEmail(cmd.Email), Name: cmd.Name})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, signed)
	return nil
}

func printHabits(out io.Writer, list []*habits.Habit) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tOWNER\tPUBLIC\tSTREAK\tBEST")
	for _, h := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\t%d\n",
			h.ID.Hex(), h.Title, h.Category, h.OwnerEmail, h.IsPublic, h.CurrentStreak, h.LongestStreak)
	}
	return w.Flush()
}
