package dfg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/l3aro/go-dataflow/pkg/cfg"
	"github.com/l3aro/go-dataflow/pkg/dataflow"
	"github.com/l3aro/go-dataflow/pkg/report"
)

// ErrUnknownAnalysis is returned for an analysis name that is not recognised.
var ErrUnknownAnalysis = errors.New("unknown analysis")

// Kind names an analysis.
type Kind string

const (
	KindReachingDefs   Kind = "reaching-definitions"
	KindLiveVars       Kind = "live-variables"
	KindAvailableExprs Kind = "available-expressions"
)

// Kinds returns every analysis in report order.
func Kinds() []Kind {
	return []Kind{KindReachingDefs, KindLiveVars, KindAvailableExprs}
}

var kindAliases = map[string]Kind{
	"reaching-definitions":  KindReachingDefs,
	"reaching":              KindReachingDefs,
	"rd":                    KindReachingDefs,
	"live-variables":        KindLiveVars,
	"liveness":              KindLiveVars,
	"longevity":             KindLiveVars,
	"lv":                    KindLiveVars,
	"available-expressions": KindAvailableExprs,
	"available":             KindAvailableExprs,
	"ae":                    KindAvailableExprs,
}

// ParseKind resolves an analysis name or short alias ("rd", "lv", "ae").
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAnalysis, s)
}

// ParseKinds resolves a list of names, dropping repeats. An empty list means
// every analysis.
func ParseKinds(names []string) ([]Kind, error) {
	if len(names) == 0 {
		return Kinds(), nil
	}
	seen := make(map[Kind]struct{}, len(names))
	var kinds []Kind
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Title is the report heading.
func (k Kind) Title() string {
	switch k {
	case KindReachingDefs:
		return "Reaching Definitions"
	case KindLiveVars:
		return "Live Variables"
	case KindAvailableExprs:
		return "Available Expressions"
	default:
		return string(k)
	}
}

// Suffix is appended to output file names.
func (k Kind) Suffix() string {
	switch k {
	case KindReachingDefs:
		return "rd"
	case KindLiveVars:
		return "lv"
	case KindAvailableExprs:
		return "ae"
	default:
		return string(k)
	}
}

// Run analyses g and renders the converged facts.
func Run(g *cfg.Graph, k Kind) (*report.Report, error) {
	switch k {
	case KindReachingDefs:
		a := NewReachingDefsAnalyzer(g)
		res := a.Analyze(dataflow.Solver[Definition]{})
		return report.Build(string(k), k.Title(), g, res, Definition.String), nil
	case KindLiveVars:
		a := NewLiveVarsAnalyzer(g)
		res := a.Analyze(dataflow.Solver[string]{})
		return report.Build(string(k), k.Title(), g, res, identity), nil
	case KindAvailableExprs:
		a := NewAvailableExprsAnalyzer(g)
		res := a.Analyze(dataflow.Solver[string]{})
		return report.Build(string(k), k.Title(), g, res, identity), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysis, k)
	}
}

func identity(s string) string { return s }
