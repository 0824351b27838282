package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	// Packages
	doublestar "github.com/bmatcuk/doublestar/v4"
	units "github.com/docker/go-units"
	uploader "github.com/mutablelogic/go-uploader"
	form "github.com/mutablelogic/go-uploader/pkg/form"
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
	planner "github.com/mutablelogic/go-uploader/pkg/planner"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	term "golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type UploadCommands struct {
	Upload UploadCommand `cmd:"" group:"CLIENT" help:"Submit a form and upload its files"`
}

type UploadCommand struct {
	Schema   int64    `name:"schema" required:"" help:"Schema (file type) identifier"`
	Form     string   `name:"form" type:"existingfile" help:"Form JSON file. File references are resolved relative to the form."`
	Files    []string `name:"files" placeholder:"FIELD=GLOB" help:"Add the files matching a glob to a field (repeatable)"`
	Group    []string `name:"group" placeholder:"FIELD=N" help:"Number of files of a field in each sample (default 1)"`
	Text     []string `name:"text" help:"Top-level form keys copied into each sample description (default: all top-level values)"`
	Parallel int      `name:"parallel" default:"4" help:"Maximum concurrent transfers (0 is unlimited)"`
	Quiet    bool     `name:"quiet" short:"q" help:"Do not show progress"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *UploadCommand) Run(app *Globals) error {
	// Build the form
	tree, err := cmd.tree()
	if err != nil {
		return err
	}
	fields, err := cmd.fields(tree)
	if err != nil {
		return err
	}
	text := cmd.Text
	if len(text) == 0 {
		text = textFields(tree)
	}

	// Create the manager
	api, err := app.Client()
	if err != nil {
		return err
	}
	mgr, err := manager.New(api, manager.WithLogger(app.logger), manager.WithParallel(cmd.Parallel))
	if err != nil {
		return err
	}

	// Summarize the submission
	entries := form.CollectFileEntries(tree)
	var total int64
	for _, entry := range entries {
		total += entry.Source.Size()
	}
	fmt.Fprintf(os.Stderr, "Uploading %d files (%s)\n", len(entries), units.HumanSize(float64(total)))

	// Render progress until the submission settles
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(app.ctx)
	if !cmd.Quiet {
		events := mgr.Subscribe(ctx, 64)
		wg.Add(1)
		go func() {
			defer wg.Done()
			render(os.Stderr, isTerminal(os.Stderr), events)
		}()
	}
	result, err := mgr.Submit(app.ctx, manager.Submission{
		SchemaID:   cmd.Schema,
		Form:       tree,
		Fields:     fields,
		TextFields: text,
	})
	cancel()
	wg.Wait()

	// Print the results
	if result != nil {
		printResult(os.Stdout, result, mgr)
	}
	return err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// tree returns the form read from the form file, with the --files globs
// added as multi-file fields
func (cmd *UploadCommand) tree() (*form.Node, error) {
	tree := form.Container()
	if cmd.Form != "" {
		r, err := os.Open(cmd.Form)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		dir := filepath.Dir(cmd.Form)
		tree, err = form.Parse(r, func(ref string) (form.Source, error) {
			if !filepath.IsAbs(ref) {
				ref = filepath.Join(dir, ref)
			}
			return form.FileSource(ref)
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cmd.Form, err)
		}
	}

	for _, arg := range cmd.Files {
		field, pattern, ok := strings.Cut(arg, "=")
		if !ok || field == "" || pattern == "" {
			return nil, uploader.ErrValidation.Withf("--files %q: expected FIELD=GLOB", arg)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, uploader.ErrValidation.Withf("--files %q: %v", arg, err)
		} else if len(matches) == 0 {
			return nil, uploader.ErrValidation.Withf("--files %q: no files match", arg)
		}
		sort.Strings(matches)

		// Append to an existing multi-file field
		node := tree.Get(field)
		if node == nil || node.Kind() != form.KindContainer {
			node = form.Container()
			tree.Set(field, node)
		}
		for _, match := range matches {
			src, err := form.FileSource(match)
			if err != nil {
				return nil, err
			}
			node.Set(strconv.Itoa(len(node.Keys())), form.File(src, false))
		}
	}

	// Return success
	return tree, nil
}

// fields returns the planner fields in the order the form declares them,
// with the group sizes from --group
func (cmd *UploadCommand) fields(tree *form.Node) ([]planner.Field, error) {
	groups := make(map[string]int, len(cmd.Group))
	for _, arg := range cmd.Group {
		field, value, ok := strings.Cut(arg, "=")
		n, err := strconv.Atoi(value)
		if !ok || field == "" || err != nil {
			return nil, uploader.ErrValidation.Withf("--group %q: expected FIELD=N", arg)
		}
		groups[field] = n
	}

	var result []planner.Field
	for _, entry := range form.CollectFileEntries(tree) {
		if containsField(result, entry.FieldName) {
			continue
		}
		size, exists := groups[entry.FieldName]
		if !exists {
			size = 1
		}
		result = append(result, planner.Field{Name: entry.FieldName, GroupSize: size})
	}
	for field := range groups {
		if !containsField(result, field) {
			return nil, uploader.ErrValidation.Withf("--group %q: no files in field", field)
		}
	}
	return result, nil
}

func containsField(fields []planner.Field, name string) bool {
	for _, field := range fields {
		if field.Name == name {
			return true
		}
	}
	return false
}

// textFields returns the top-level keys of the tree which are not files
func textFields(tree *form.Node) []string {
	var result []string
	for _, key := range tree.Keys() {
		if tree.Get(key).Kind() == form.KindScalar {
			result = append(result, key)
		}
	}
	return result
}

// render writes task events. On a terminal the progress of each task is
// redrawn in place, otherwise only status changes are written.
func render(w io.Writer, tty bool, events <-chan schema.TaskEvent) {
	for evt := range events {
		switch evt.Event {
		case schema.TaskProgressEvent:
			if tty {
				fmt.Fprintf(w, "\r%-60s %3d%%", truncate(evt.Task.Name, 60), evt.Task.Progress)
			}
		case schema.TaskStatusEvent:
			if tty {
				fmt.Fprint(w, "\r\033[K")
			}
			if evt.Task.Error != "" {
				fmt.Fprintf(w, "%s: %s (%s)\n", evt.Task.Name, evt.Task.Status, evt.Task.Error)
			} else {
				fmt.Fprintf(w, "%s: %s\n", evt.Task.Name, evt.Task.Status)
			}
		}
	}
}

func printResult(w io.Writer, result *schema.SubmitResult, mgr *manager.Manager) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "SAMPLE\tTASK\tFILE ID\tRESULT")
	for _, sample := range result.Samples {
		name := sample.TaskID
		if task, exists := mgr.Task(sample.TaskID); exists {
			name = task.Name
		}
		outcome := "ok"
		if !sample.Success() {
			outcome = sample.Error
		}
		fileID := "-"
		if sample.FileID != 0 {
			fileID = strconv.FormatInt(sample.FileID, 10)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sample.SampleID, name, fileID, outcome)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
