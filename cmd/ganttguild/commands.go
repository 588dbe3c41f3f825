package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/internal/view"
	"github.com/kazz187/ganttguild/pkg/cerr"
)

const dateLayout = "2006-01-02"

func (c *cli) validate(_ context.Context) error {
	d, err := loadDocument(*c.validateFile)
	if err != nil {
		return err
	}
	if err := schedule.NewDependencyGraph(d.set).Validate(); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s: %d tasks, %d dependencies, %d resources, %d assignments\n",
		d.path, d.set.Len(), len(d.view.Dependencies), len(d.view.Resources), len(d.view.Assignments))

	// A probe on a copy tells whether the stored dates already satisfy
	// every dependency.
	updates, err := schedule.NewScheduler(d.set.Clone()).RescheduleAll()
	if err != nil {
		return err
	}
	if len(updates) > 0 {
		color.New(color.FgYellow).Fprintf(c.stdout, "warning: %d tasks violate their dependencies; run reschedule --all\n", len(updates))
		return nil
	}
	color.New(color.FgGreen).Fprintln(c.stdout, "ok")
	return nil
}

func (c *cli) criticalPath(_ context.Context) error {
	d, err := loadDocument(*c.pathFile)
	if err != nil {
		return err
	}
	path, err := schedule.ComputeCriticalPath(d.set)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%d days, %s to %s\n", path.TotalDuration,
		path.StartDate.Format(dateLayout), path.EndDate.Format(dateLayout))
	for i, id := range path.TaskIDs {
		t, _ := d.set.Task(id)
		fmt.Fprintf(c.stdout, "%2d. %s %s (%dd)\n", i+1, id, t.Name, t.DurationDays())
	}
	return nil
}

func (c *cli) conflicts(_ context.Context) error {
	d, err := loadDocument(*c.conflictsFile)
	if err != nil {
		return err
	}
	var found []schedule.ResourceConflict
	switch {
	case *c.conflictsResource != "" && *c.conflictsTask != "":
		return cerr.NewError(cerr.InvalidArgument, "--resource and --task are exclusive", nil)
	case *c.conflictsResource != "":
		found, err = schedule.CheckConflicts(d.set, *c.conflictsResource)
	case *c.conflictsTask != "":
		found, err = schedule.CheckConflictsForTask(d.set, *c.conflictsTask)
	default:
		found, err = schedule.CheckAllConflicts(d.set)
	}
	if err != nil {
		return err
	}
	if len(found) == 0 {
		color.New(color.FgGreen).Fprintln(c.stdout, "no conflicts")
		return nil
	}
	warn := color.New(color.FgRed, color.Bold)
	for _, cf := range found {
		r, _ := d.set.Resource(cf.ResourceID)
		warn.Fprintf(c.stdout, "%s", r.Name)
		fmt.Fprintf(c.stdout, ": %d%% of %d%% from %s to %s (%s)\n",
			cf.TotalAllocation, cf.Capacity,
			cf.WindowStart.Format(dateLayout), cf.WindowEnd.Format(dateLayout),
			strings.Join(cf.ConflictingTaskIDs, ", "))
	}
	if *c.conflictsFail {
		return errConflicts
	}
	return nil
}

func (c *cli) reschedule(ctx context.Context) error {
	if (*c.rescheduleAnchor == "") == !*c.rescheduleAll {
		return cerr.NewError(cerr.InvalidArgument, "give exactly one of --anchor or --all", nil)
	}
	d, err := loadDocument(*c.rescheduleFile)
	if err != nil {
		return err
	}
	var updates []schedule.TaskUpdate
	if *c.rescheduleAll {
		updates, err = schedule.NewScheduler(d.set).RescheduleAll()
	} else {
		updates, err = schedule.NewScheduler(d.set).Reschedule(*c.rescheduleAnchor)
	}
	if err != nil {
		// Whatever moved before the failure is shown but never written.
		if len(updates) > 0 {
			c.printUpdates(updates)
		}
		return err
	}
	return c.finish(ctx, d, updates, *c.rescheduleDiff, *c.rescheduleWrite)
}

func (c *cli) addDependency(ctx context.Context) error {
	d, err := loadDocument(*c.addDepFile)
	if err != nil {
		return err
	}
	dep, err := schedule.NewDependencyGraph(d.set).AddDependency(*c.addDepSource, *c.addDepTarget,
		schedule.DependencyType(*c.addDepType), *c.addDepLag)
	if err != nil {
		return err
	}
	updates, err := schedule.NewScheduler(d.set).Reschedule(dep.SourceID)
	if err != nil {
		if len(updates) > 0 {
			c.printUpdates(updates)
		}
		return err
	}
	if !*c.addDepDiff {
		fmt.Fprintf(c.stdout, "added %s: %s -> %s (%s, lag %d)\n", dep.ID, dep.SourceID, dep.TargetID, dep.Type, dep.LagDays)
	}
	return c.finish(ctx, d, updates, *c.addDepDiff, *c.addDepWrite)
}

func (c *cli) finish(ctx context.Context, d *document, updates []schedule.TaskUpdate, diff, write bool) error {
	if diff {
		out, err := d.diff()
		if err != nil {
			return err
		}
		fmt.Fprint(c.stdout, out)
	} else {
		c.printUpdates(updates)
	}
	if !write {
		return nil
	}
	if err := d.save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "wrote %s\n", d.path)
	return nil
}

func (c *cli) printUpdates(updates []schedule.TaskUpdate) {
	if len(updates) == 0 {
		fmt.Fprintln(c.stdout, "no tasks moved")
		return
	}
	for _, u := range updates {
		fmt.Fprintf(c.stdout, "%s: %s..%s -> %s..%s (%s)\n", u.TaskID,
			u.OldStart.Format(dateLayout), u.OldEnd.Format(dateLayout),
			u.NewStart.Format(dateLayout), u.NewEnd.Format(dateLayout),
			shift(u.NewStart.Sub(u.OldStart)))
	}
}

func shift(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	if days >= 0 {
		return fmt.Sprintf("+%dd", days)
	}
	return fmt.Sprintf("%dd", days)
}

func (c *cli) gantt(_ context.Context) error {
	d, err := loadDocument(*c.ganttFile)
	if err != nil {
		return err
	}
	if *c.ganttWidth < 1 {
		return cerr.NewError(cerr.InvalidArgument, "--width must be positive", nil)
	}
	path, err := schedule.ComputeCriticalPath(d.set)
	var noPath *schedule.NoPathError
	if err != nil && !errors.As(err, &noPath) {
		return err
	}
	renderGantt(c.stdout, d.view.Name, d.set, path, *c.ganttWidth, !*c.noColor && !color.NoColor)
	return nil
}

func (c *cli) convert(ctx context.Context) error {
	d, err := loadDocument(*c.convertIn)
	if err != nil {
		return err
	}
	if d.format, err = view.FormatFromPath(*c.convertOut); err != nil {
		return invalid(err)
	}
	data, err := d.encode()
	if err != nil {
		return err
	}
	if err := writeFile(ctx, *c.convertOut, data); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "wrote %s\n", *c.convertOut)
	return nil
}
