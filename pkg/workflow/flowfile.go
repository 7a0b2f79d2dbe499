package workflow

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/agent-protocol/a2a-go/pkg/network"
)

// StepDef is the JSON representation of one flow step: a declarative
// step list. A FlowDef is the saved-to-disk shape the a2actl "call"
// subcommand loads.
type StepDef struct {
	Kind string `json:"kind"`

	// ask / auto_route
	Agent    string `json:"agent,omitempty"`
	Template string `json:"template,omitempty"`
	Store    string `json:"store,omitempty"`

	// if_contains / if_matches
	Substr  string    `json:"substr,omitempty"`
	Pattern string    `json:"pattern,omitempty"`
	Then    []StepDef `json:"then,omitempty"`
	Else    []StepDef `json:"else,omitempty"`

	// parallel
	Merge    string      `json:"merge,omitempty"` // "concat" (default) or "list"
	Sep      string      `json:"sep,omitempty"`
	Limit    int         `json:"limit,omitempty"`
	Branches [][]StepDef `json:"branches,omitempty"`
}

// FlowDef is the top-level saved flow file: an ordered step list plus the
// initial context values to seed the run with.
type FlowDef struct {
	Steps   []StepDef      `json:"steps"`
	Initial map[string]any `json:"initial,omitempty"`
}

// LoadFile reads a flow file from path and builds a Flow bound to net,
// ready to Run or RunText.
func LoadFile(path string, net *network.Network, opts ...Option) (*Flow, Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading flow file: %w", err)
	}
	var def FlowDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, nil, fmt.Errorf("parsing flow file: %w", err)
	}
	f := New(net, opts...)
	if err := applySteps(net, f, def.Steps); err != nil {
		return nil, nil, err
	}
	initial := Context{}
	for k, v := range def.Initial {
		initial[k] = v
	}
	return f, initial, nil
}

func applySteps(net *network.Network, f *Flow, steps []StepDef) error {
	for _, s := range steps {
		if err := applyStep(net, f, s); err != nil {
			return err
		}
	}
	return nil
}

func applyStep(net *network.Network, f *Flow, s StepDef) error {
	switch s.Kind {
	case "ask":
		if s.Agent == "" {
			return fmt.Errorf("flow file: ask step missing agent")
		}
		f.Ask(s.Agent, s.Template, storeArg(s.Store)...)
	case "auto_route":
		f.AutoRoute(s.Template, storeArg(s.Store)...)
	case "if_contains":
		f.IfContains(s.Substr)
		if err := applySteps(net, f, s.Then); err != nil {
			return err
		}
		if len(s.Else) > 0 {
			f.ElseBranch()
			if err := applySteps(net, f, s.Else); err != nil {
				return err
			}
		}
		f.EndIf()
	case "if_matches":
		f.IfMatches(s.Pattern)
		if err := applySteps(net, f, s.Then); err != nil {
			return err
		}
		if len(s.Else) > 0 {
			f.ElseBranch()
			if err := applySteps(net, f, s.Else); err != nil {
				return err
			}
		}
		f.EndIf()
	case "parallel":
		merge := mergeStrategy(s.Merge, s.Sep)
		branchFns := make([]func(sub *Flow), 0, len(s.Branches))
		for _, steps := range s.Branches {
			steps := steps
			// Validate eagerly so a malformed branch fails LoadFile instead
			// of surfacing mid-run from inside Parallel's goroutines.
			if err := applySteps(net, New(net), steps); err != nil {
				return fmt.Errorf("flow file: parallel branch: %w", err)
			}
			branchFns = append(branchFns, func(sub *Flow) {
				_ = applySteps(net, sub, steps)
			})
		}
		f.Parallel(s.Limit, merge, branchFns...)
	default:
		return fmt.Errorf("flow file: unknown step kind %q", s.Kind)
	}
	return nil
}

func storeArg(store string) []string {
	if store == "" {
		return nil
	}
	return []string{store}
}

func mergeStrategy(kind, sep string) MergeStrategy {
	switch kind {
	case "list":
		return List()
	default:
		if sep == "" {
			sep = "\n\n"
		}
		return Concat(sep)
	}
}
