// Command ganttguild inspects and edits view documents on disk: it checks
// them, reports the critical path and resource conflicts, propagates
// dependency constraints and draws a text Gantt chart.
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/internal/view"
	"github.com/kazz187/ganttguild/pkg/cerr"
)

var version = "dev"

type cli struct {
	app    *kingpin.Application
	stdout io.Writer
	stderr io.Writer

	noColor *bool

	validateCmd  *kingpin.CmdClause
	validateFile *string

	pathCmd  *kingpin.CmdClause
	pathFile *string

	conflictsCmd      *kingpin.CmdClause
	conflictsFile     *string
	conflictsResource *string
	conflictsTask     *string
	conflictsFail     *bool

	rescheduleCmd    *kingpin.CmdClause
	rescheduleFile   *string
	rescheduleAnchor *string
	rescheduleAll    *bool
	rescheduleDiff   *bool
	rescheduleWrite  *bool

	addDepCmd    *kingpin.CmdClause
	addDepFile   *string
	addDepSource *string
	addDepTarget *string
	addDepType   *string
	addDepLag    *int
	addDepDiff   *bool
	addDepWrite  *bool

	ganttCmd   *kingpin.CmdClause
	ganttFile  *string
	ganttWidth *int

	convertCmd *kingpin.CmdClause
	convertIn  *string
	convertOut *string
}

func newCLI(stdout, stderr io.Writer) *cli {
	c := &cli{
		app:    kingpin.New("ganttguild", "Dependency scheduling and critical path analysis for Gantt views."),
		stdout: stdout,
		stderr: stderr,
	}
	c.app.Version(version)
	c.app.UsageWriter(stdout)
	c.app.ErrorWriter(stderr)
	c.noColor = c.app.Flag("no-color", "Disable colored output.").Envar("NO_COLOR").Bool()

	c.validateCmd = c.app.Command("validate", "Check a view document for structural errors.")
	c.validateFile = c.validateCmd.Arg("file", "View document (.yaml, .yml or .toml).").Required().ExistingFile()

	c.pathCmd = c.app.Command("critical-path", "Print the longest chain of dependent tasks.")
	c.pathFile = c.pathCmd.Arg("file", "View document.").Required().ExistingFile()

	c.conflictsCmd = c.app.Command("conflicts", "List resource over-allocation windows.")
	c.conflictsFile = c.conflictsCmd.Arg("file", "View document.").Required().ExistingFile()
	c.conflictsResource = c.conflictsCmd.Flag("resource", "Only check this resource.").String()
	c.conflictsTask = c.conflictsCmd.Flag("task", "Only report conflicts involving this task.").String()
	c.conflictsFail = c.conflictsCmd.Flag("fail", "Exit with status 3 when a conflict is found.").Bool()

	c.rescheduleCmd = c.app.Command("reschedule", "Move tasks until every dependency is satisfied.")
	c.rescheduleFile = c.rescheduleCmd.Arg("file", "View document.").Required().ExistingFile()
	c.rescheduleAnchor = c.rescheduleCmd.Flag("anchor", "Propagate from this task only.").String()
	c.rescheduleAll = c.rescheduleCmd.Flag("all", "Propagate from every task.").Bool()
	c.rescheduleDiff = c.rescheduleCmd.Flag("diff", "Print a unified diff of the document instead of a summary.").Bool()
	c.rescheduleWrite = c.rescheduleCmd.Flag("write", "Write the result back to the file.").Short('w').Bool()

	c.addDepCmd = c.app.Command("add-dep", "Add a dependency and propagate its effect.")
	c.addDepFile = c.addDepCmd.Arg("file", "View document.").Required().ExistingFile()
	c.addDepSource = c.addDepCmd.Arg("source", "Predecessor task id.").Required().String()
	c.addDepTarget = c.addDepCmd.Arg("target", "Successor task id.").Required().String()
	c.addDepType = c.addDepCmd.Flag("type", "Dependency type.").Default(string(schedule.FinishToStart)).
		Enum(string(schedule.FinishToStart), string(schedule.StartToStart), string(schedule.FinishToFinish), string(schedule.StartToFinish))
	c.addDepLag = c.addDepCmd.Flag("lag", "Lag in days, may be negative.").Default("0").Int()
	c.addDepDiff = c.addDepCmd.Flag("diff", "Print a unified diff of the document instead of a summary.").Bool()
	c.addDepWrite = c.addDepCmd.Flag("write", "Write the result back to the file.").Short('w').Bool()

	c.ganttCmd = c.app.Command("gantt", "Draw the view as a text Gantt chart.")
	c.ganttFile = c.ganttCmd.Arg("file", "View document.").Required().ExistingFile()
	c.ganttWidth = c.ganttCmd.Flag("width", "Maximum number of chart columns.").Default("60").Int()

	c.convertCmd = c.app.Command("convert", "Rewrite a view document in another format.")
	c.convertIn = c.convertCmd.Arg("in", "Source document.").Required().ExistingFile()
	c.convertOut = c.convertCmd.Arg("out", "Destination; the extension picks the format.").Required().String()
	return c
}

// errConflicts signals --fail with conflicts present; nothing more is
// printed for it.
var errConflicts = errors.New("conflicts found")

func (c *cli) run(ctx context.Context, args []string) int {
	command, err := c.app.Parse(args)
	if err != nil {
		c.app.Errorf("%s", err)
		return 1
	}
	if *c.noColor {
		color.NoColor = true
	}

	switch command {
	case c.validateCmd.FullCommand():
		err = c.validate(ctx)
	case c.pathCmd.FullCommand():
		err = c.criticalPath(ctx)
	case c.conflictsCmd.FullCommand():
		err = c.conflicts(ctx)
	case c.rescheduleCmd.FullCommand():
		err = c.reschedule(ctx)
	case c.addDepCmd.FullCommand():
		err = c.addDependency(ctx)
	case c.ganttCmd.FullCommand():
		err = c.gantt(ctx)
	case c.convertCmd.FullCommand():
		err = c.convert(ctx)
	}
	if errors.Is(err, errConflicts) {
		return 3
	}
	if err != nil {
		return c.fail(err)
	}
	return 0
}

// fail prints err and returns the exit status for its code: 1 for a bad
// document or argument, 2 for anything else.
func (c *cli) fail(err error) int {
	var e *cerr.Error
	if !errors.As(view.ToError(err), &e) {
		e = cerr.NewError(cerr.Unknown, err.Error(), err)
	}
	msg := e.Msg
	if e.Code == cerr.Internal && e.Err != nil {
		msg = e.Err.Error()
	}
	color.New(color.FgRed).Fprintf(c.stderr, "error: %s\n", msg)
	return e.Code.ExitCode()
}

func main() {
	os.Exit(newCLI(os.Stdout, os.Stderr).run(context.Background(), os.Args[1:]))
}
