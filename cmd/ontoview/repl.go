package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wbrown/janus-ontology/ontology"
	"github.com/wbrown/janus-ontology/ontology/editor"
	"github.com/wbrown/janus-ontology/ontology/executor"
	"github.com/wbrown/janus-ontology/ontology/registry"
	"github.com/wbrown/janus-ontology/ontology/session"
)

// errExit ends the interactive loop
var errExit = errors.New("exit")

// replCommand is one dot command of the interactive prompt
type replCommand struct {
	usage string
	help  string
	run   func(a *app, arg string) error
}

var replCommands map[string]replCommand

func init() {
	replCommands = map[string]replCommand{
		".help":         {"", "Show this help", (*app).help},
		".exit":         {"", "Exit", func(*app, string) error { return errExit }},
		".load":         {"FILE", "Merge an ontology file (format by extension)", (*app).cmdLoad},
		".save":         {"FILE", "Write every triple to FILE", (*app).cmdSave},
		".catalog":      {"", "List the preloaded ontologies", (*app).cmdCatalog},
		".preload":      {"[NAME]", "Load a preloaded ontology, or all of them", (*app).cmdPreload},
		".tree":         {"", "Show the class hierarchy", (*app).cmdTree},
		".populated":    {"", "Show the class hierarchy with instances", (*app).cmdPopulated},
		".properties":   {"", "List object properties", (*app).cmdProperties},
		".instances":    {"", "List every typed individual", (*app).cmdInstances},
		".class":        {"NAME", "Show a class", (*app).cmdClass},
		".property":     {"NAME", "Show an object property", (*app).cmdProperty},
		".instance":     {"NAME", "Show an instance", (*app).cmdInstance},
		".open":         {"IRI", "Show whatever an identifier names", (*app).cmdOpen},
		".search":       {"TEXT", "Find names containing TEXT", (*app).cmdSearch},
		".reason":       {"", "Infer instance types from subclass edges", (*app).cmdReason},
		".add-instance": {"CLASS NAME|- LABEL", "Create an instance ('-' mints a name)", (*app).cmdAddInstance},
		".add-triple":   {"S P O", `Add a fact; O may be "text"@lang or "text"^^type`, (*app).cmdAddTriple},
		".suggest":      {"MODE NAME", "Suggest predicates|properties for a class or classes for a property", (*app).cmdSuggest},
		".stats":        {"", "Show store and command metrics", (*app).cmdStats},
		".diagnostics":  {"", "Show view rebuild problems", (*app).cmdDiagnostics},
	}
}

// repl reads commands until end of input or .exit. Lines that are not dot
// commands are pattern queries; a query continues over several lines until
// its braces balance.
func (a *app) repl(in io.Reader) error {
	fmt.Fprintln(a.out, "=== ontoview ===")
	fmt.Fprintln(a.out, "Type .help for commands, or a pattern query such as ?c a owl:Class")
	fmt.Fprintln(a.out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		for strings.Count(line, "{") > strings.Count(line, "}") {
			fmt.Fprint(a.out, "  ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line += "\n" + scanner.Text()
		}

		err := a.exec(line)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(a.out, a.palette.warn.Sprint("Error: "+err.Error()))
		}
	}
}

// exec runs one line of input
func (a *app) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	if !strings.HasPrefix(line, ".") {
		return a.cmdQuery(line)
	}
	name, arg, _ := strings.Cut(line, " ")
	cmd, ok := replCommands[name]
	if !ok {
		return fmt.Errorf("unknown command %s; use .help for help", name)
	}
	return cmd.run(a, strings.TrimSpace(arg))
}

func (a *app) help(string) error {
	names := make([]string, 0, len(replCommands))
	for name := range replCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := replCommands[name]
		fmt.Fprintf(a.out, "  %-28s %s\n", strings.TrimSpace(name+" "+c.usage), c.help)
	}
	fmt.Fprintln(a.out, "  ?s ?p ?o ...                 Run a pattern query")
	return nil
}

func required(arg, usage string) error {
	if arg == "" {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func (a *app) cmdLoad(arg string) error {
	if err := required(arg, ".load FILE"); err != nil {
		return err
	}
	resp, err := a.loadFile(arg)
	if err != nil {
		return err
	}
	a.printLoaded(arg, resp)
	return nil
}

func (a *app) cmdSave(arg string) error {
	if err := required(arg, ".save FILE"); err != nil {
		return err
	}
	return a.saveFile(arg)
}

func (a *app) cmdCatalog(string) error {
	entries, err := a.preloaded()
	if err != nil {
		return err
	}
	printCatalog(a.out, entries)
	return nil
}

func (a *app) cmdPreload(arg string) error {
	return a.loadPreloaded(context.Background(), arg)
}

func (a *app) cmdTree(string) error {
	v := a.sess.Views()
	if v.Hierarchy == nil {
		printDiagnostics(a.out, a.sess.Diagnostics(), a.palette)
		return nil
	}
	printForest(a.out, v.Hierarchy.Forest, a.palette)
	return nil
}

func (a *app) cmdPopulated(string) error {
	v := a.sess.Views()
	if v.Populated == nil {
		printDiagnostics(a.out, a.sess.Diagnostics(), a.palette)
		return nil
	}
	printForest(a.out, v.Populated, a.palette)
	return nil
}

func (a *app) cmdProperties(string) error {
	printProperties(a.out, a.sess.Views().Properties)
	return nil
}

func (a *app) cmdInstances(string) error {
	printIRIs(a.out, a.sess.Views().Instances)
	return nil
}

func (a *app) show(cmd session.Command) error {
	resp, err := a.sess.Dispatch(cmd)
	if err != nil {
		return err
	}
	printDetail(a.out, resp.Detail, a.palette)
	return nil
}

func (a *app) cmdClass(arg string) error {
	if err := required(arg, ".class NAME"); err != nil {
		return err
	}
	return a.show(session.SelectClass{Name: arg})
}

func (a *app) cmdProperty(arg string) error {
	if err := required(arg, ".property NAME"); err != nil {
		return err
	}
	return a.show(session.SelectProperty{Name: arg})
}

func (a *app) cmdInstance(arg string) error {
	if err := required(arg, ".instance NAME"); err != nil {
		return err
	}
	return a.show(session.SelectInstance{Name: arg})
}

func (a *app) cmdOpen(arg string) error {
	if err := required(arg, ".open IRI"); err != nil {
		return err
	}
	return a.show(session.Open{ID: ontology.IRI(strings.Trim(arg, "<>"))})
}

func (a *app) cmdSearch(arg string) error {
	if err := required(arg, ".search TEXT"); err != nil {
		return err
	}
	resp, err := a.sess.Dispatch(session.Search{Text: arg})
	if err != nil {
		return err
	}
	printSearch(a.out, arg, resp.Results, a.palette)
	return nil
}

func (a *app) cmdReason(string) error {
	resp, err := a.sess.Dispatch(session.Reason{})
	if err != nil {
		return err
	}
	r := resp.Report
	fmt.Fprintf(a.out, "Inferred %d type facts in %d passes (%s)\n", r.Inferred, r.Passes, r.Duration)
	printDiagnostics(a.out, resp.Diagnostics, a.palette)
	return nil
}

// cmdAddInstance takes CLASS NAME LABEL..., where NAME "-" asks for a
// minted identifier. A trailing @lang tags the label.
func (a *app) cmdAddInstance(arg string) error {
	fields := strings.Fields(arg)
	if len(fields) < 3 {
		return fmt.Errorf("usage: .add-instance CLASS NAME|- LABEL [@lang]")
	}
	cmd := session.AddInstance{Class: fields[0], Instance: fields[1]}
	if cmd.Instance == "-" {
		cmd.Instance, cmd.Mint = "", true
	}
	label := fields[2:]
	if last := label[len(label)-1]; len(label) > 1 && strings.HasPrefix(last, "@") {
		cmd.Lang = last[1:]
		label = label[:len(label)-1]
	}
	cmd.Label = strings.Trim(strings.Join(label, " "), `"`)

	resp, err := a.sess.Dispatch(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s <%s> (%d triples)\n", registry.ShortName(resp.Instance), resp.Instance, resp.Added)
	printDiagnostics(a.out, resp.Diagnostics, a.palette)
	return nil
}

func (a *app) cmdAddTriple(arg string) error {
	req, err := parseTriple(arg)
	if err != nil {
		return err
	}
	resp, err := a.sess.Dispatch(session.AddTriple{TripleRequest: req})
	if err != nil {
		return err
	}
	if resp.Added == 0 {
		fmt.Fprintf(a.out, "Already present: %s\n", resp.Triple)
		return nil
	}
	fmt.Fprintf(a.out, "Added %s\n", resp.Triple)
	printDiagnostics(a.out, resp.Diagnostics, a.palette)
	return nil
}

// parseTriple splits "S P O" where O is an identifier, a prefixed name or
// a quoted literal with an optional @lang or ^^datatype suffix
func parseTriple(arg string) (editor.TripleRequest, error) {
	var req editor.TripleRequest
	fields := strings.SplitN(strings.TrimSpace(arg), " ", 3)
	if len(fields) < 3 {
		return req, fmt.Errorf("usage: .add-triple SUBJECT PREDICATE OBJECT")
	}
	req.Subject = strings.Trim(fields[0], "<>")
	req.Predicate = strings.Trim(fields[1], "<>")
	obj := strings.TrimSpace(fields[2])

	if !strings.HasPrefix(obj, `"`) {
		req.Object = strings.Trim(obj, "<>")
		return req, nil
	}
	end := strings.LastIndex(obj, `"`)
	if end == 0 {
		return req, fmt.Errorf("unterminated literal %s", obj)
	}
	req.Literal = true
	req.Object = obj[1:end]
	switch suffix := obj[end+1:]; {
	case suffix == "":
	case strings.HasPrefix(suffix, "@"):
		req.Lang = suffix[1:]
	case strings.HasPrefix(suffix, "^^"):
		req.Datatype = strings.Trim(suffix[2:], "<>")
	default:
		return req, fmt.Errorf("unexpected %q after literal", suffix)
	}
	return req, nil
}

func (a *app) cmdQuery(text string) error {
	resp, err := a.sess.Dispatch(session.Query{Text: text})
	if err != nil {
		return err
	}
	tf := executor.NewTableFormatter()
	tf.Shorten = registry.ShortName
	fmt.Fprintln(a.out, tf.FormatRows(resp.Rows))
	return nil
}

func (a *app) cmdSuggest(arg string) error {
	mode, name, _ := strings.Cut(arg, " ")
	if err := required(strings.TrimSpace(name), ".suggest predicates|properties|classes NAME"); err != nil {
		return err
	}
	resp, err := a.sess.Dispatch(session.Suggest{Mode: session.SuggestMode(mode), Name: strings.TrimSpace(name)})
	if err != nil {
		return err
	}
	printIRIs(a.out, resp.Suggestions)
	return nil
}

func (a *app) cmdStats(string) error {
	return printStats(a.out, a.registry)
}

func (a *app) cmdDiagnostics(string) error {
	diags := a.sess.Diagnostics()
	if len(diags) == 0 {
		fmt.Fprintln(a.out, "No problems")
		return nil
	}
	printDiagnostics(a.out, diags, a.palette)
	return nil
}
