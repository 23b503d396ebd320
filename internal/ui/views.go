package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/permission"
	"github.com/josephgoksu/geotask/internal/session"
)

// FormatGeometry renders a task's center and radius, or "-" when the task
// has no complete geometry.
func FormatGeometry(t geo.Task) string {
	if !t.HasGeometry() {
		return "-"
	}
	return fmt.Sprintf("%.5f, %.5f · %gm", *t.Latitude, *t.Longitude, *t.Radius)
}

// FormatItemID marks temporary ids so they are not mistaken for stored rows.
func FormatItemID(id geo.ItemID) string {
	if id.IsTemporary() {
		return fmt.Sprintf("%d*", id)
	}
	return fmt.Sprintf("%d", id)
}

// RenderTasks prints the task list, most recent first. Tasks whose region is
// registered with the platform are marked as monitored.
func RenderTasks(w io.Writer, tasks []geo.Task, regions []geo.Region) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, StyleSubtle.Render(" No tasks yet. Create one with: geotask task add"))
		return
	}

	monitored := make(map[string]bool, len(regions))
	for _, r := range regions {
		monitored[r.Identifier] = true
	}

	table := &Table{
		Headers:  []string{"ID", "Name", "Updated", "Region", "Monitored"},
		MaxWidth: 40,
	}
	for _, t := range tasks {
		mark := "-"
		if monitored[t.ID.String()] {
			mark = "✓"
		}
		table.Rows = append(table.Rows, []string{
			t.ID.String(),
			t.Name,
			t.UpdatedAt.Local().Format("Jan 02 15:04"),
			FormatGeometry(t),
			mark,
		})
	}
	fmt.Fprintf(w, " 📍 Tasks: %d\n", len(tasks))
	fmt.Fprint(w, table.Render())
}

// RenderTask prints one task with its checklist.
func RenderTask(w io.Writer, t geo.Task, items []geo.Item) {
	fmt.Fprintln(w, StyleHeader.Render(fmt.Sprintf("%s (#%d)", t.Name, t.ID)))
	fmt.Fprintf(w, " %s %s\n", StyleSubtle.Render("Region: "), StyleRegion.Render(FormatGeometry(t)))
	fmt.Fprintf(w, " %s %s\n", StyleSubtle.Render("Updated:"), t.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w)
	RenderItems(w, items)
}

// RenderItems prints a checklist.
func RenderItems(w io.Writer, items []geo.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, StyleSubtle.Render(" (no items)"))
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, " %s %s %s\n", checkbox(it.Done), itemText(it), StyleSubtle.Render("#"+FormatItemID(it.ID)))
	}
}

// RenderRegions prints the region set registered under taskName.
func RenderRegions(w io.Writer, taskName string, regions []geo.Region) {
	if len(regions) == 0 {
		fmt.Fprintln(w, StyleSubtle.Render(" No regions are being monitored."))
		return
	}
	table := &Table{Headers: []string{"Region", "Latitude", "Longitude", "Radius", "Notify"}}
	for _, r := range regions {
		var notify []string
		if r.NotifyOnEnter {
			notify = append(notify, "enter")
		}
		if r.NotifyOnExit {
			notify = append(notify, "exit")
		}
		table.Rows = append(table.Rows, []string{
			r.Identifier,
			fmt.Sprintf("%.5f", r.Latitude),
			fmt.Sprintf("%.5f", r.Longitude),
			fmt.Sprintf("%gm", r.Radius),
			strings.Join(notify, ","),
		})
	}
	fmt.Fprintf(w, " 🛰  %s: %d regions\n", taskName, len(regions))
	fmt.Fprint(w, table.Render())
}

// RenderFallback tells the user that monitoring is off and why. Nothing is
// printed when err is nil.
func RenderFallback(w io.Writer, err error) {
	if err == nil {
		return
	}
	body := "Reminders will not fire until monitoring is restored.\n" + StyleSubtle.Render(err.Error())
	if errors.Is(err, permission.ErrPermissionDenied) {
		body += "\n\nGrant location access with: geotask permissions request"
	}
	fmt.Fprintln(w, RenderWarningPanel("⚠ Location monitoring is inactive", body))
}

// RenderFlush summarizes what a session flush wrote.
func RenderFlush(w io.Writer, res session.FlushResult) {
	if res.Err != nil {
		fmt.Fprintln(w, StyleError.Render("✗ Changes were not saved: "+res.Err.Error()))
		if !res.Pending.Empty() {
			fmt.Fprintln(w, StyleSubtle.Render("  They will be retried the next time this task is edited."))
		}
		return
	}
	if res.Writes() == 0 {
		fmt.Fprintln(w, StyleSubtle.Render("No changes."))
		return
	}
	fmt.Fprintln(w, StyleSuccess.Render(fmt.Sprintf("✓ Saved: %d added, %d updated, %d deleted", len(res.Inserted), res.Updated, res.Deleted)))
}

func checkbox(done bool) string {
	if done {
		return StyleSuccess.Render("[x]")
	}
	return StyleSubtle.Render("[ ]")
}

func itemText(it geo.Item) string {
	text := it.Details
	if text == "" {
		text = "(empty)"
	}
	if it.Done {
		return StyleDone.Render(text)
	}
	return StyleText.Render(text)
}
