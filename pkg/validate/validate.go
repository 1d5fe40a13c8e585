// Package validate checks a solution's cross-skill consistency and security
// contracts. Validation runs over an immutable graph.Model and never mutates
// its input; every violation is collected and returned together.
package validate

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ormasoftchile/meshcheck/pkg/graph"
	"github.com/ormasoftchile/meshcheck/pkg/logger"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
)

// ErrNilSolution is returned when no solution document is supplied.
var ErrNilSolution = errors.New("validate: solution is nil")

// DefaultReservedMountRoots are the runtime mount points connector launch
// arguments must not hardcode.
var DefaultReservedMountRoots = []string{"/mcp-store", "/app", "/data", "/workspace"}

// DeployContext carries the optional deploy payload. Connector checks run
// only when Skills is non-empty and either Connectors or MCPStore is set.
type DeployContext struct {
	Skills     []solution.Skill                 `json:"skills,omitempty"`
	Connectors []solution.Connector             `json:"connectors,omitempty"`
	MCPStore   map[string][]solution.SourceFile `json:"mcp_store,omitempty"`
}

func (d *DeployContext) active() bool {
	return d != nil && len(d.Skills) > 0 && (len(d.Connectors) > 0 || d.MCPStore != nil)
}

// Summary counts the solution's entities and the issues found.
type Summary struct {
	Skills             int `json:"skills"`
	Grants             int `json:"grants"`
	Handoffs           int `json:"handoffs"`
	Channels           int `json:"channels"`
	PlatformConnectors int `json:"platform_connectors"`
	SecurityContracts  int `json:"security_contracts"`
	ErrorCount         int `json:"error_count"`
	WarningCount       int `json:"warning_count"`
}

// Result is the flat validation outcome.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Summary  Summary `json:"summary"`
}

// Issues returns errors followed by warnings.
func (r *Result) Issues() []Issue {
	out := make([]Issue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

// Has reports whether any issue was produced by check c.
func (r *Result) Has(c Check) bool {
	for _, is := range r.Issues() {
		if is.Check == c {
			return true
		}
	}
	return false
}

// Option configures a validation run.
type Option func(*options)

type options struct {
	deploy        *DeployContext
	log           *logrus.Entry
	reservedRoots []string
}

// WithDeployContext enables the connector binding checks.
func WithDeployContext(d *DeployContext) Option {
	return func(o *options) { o.deploy = d }
}

// WithLogger injects a logger. Logging never affects the result.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithReservedMountRoots replaces DefaultReservedMountRoots.
func WithReservedMountRoots(roots ...string) Option {
	return func(o *options) { o.reservedRoots = roots }
}

// Validate runs every domain checker against sol and aggregates the result.
// It returns an error only when sol is nil.
func Validate(sol *solution.Solution, opts ...Option) (*Result, error) {
	if sol == nil {
		return nil, ErrNilSolution
	}
	return run(sol, collect(opts), nil), nil
}

func collect(opts []Option) options {
	o := options{log: logger.Discard(), reservedRoots: DefaultReservedMountRoots}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// run appends the domain issues to the ones an earlier phase produced.
func run(sol *solution.Solution, o options, issues []Issue) *Result {
	log := o.log.WithField("solution", sol.ID)
	if len(issues) > 0 {
		log.WithField("issues", len(issues)).Debug("schema violations found")
	}

	m := graph.Build(sol)

	// V1: referential integrity
	ref := checkReferences(m)
	log.WithField("issues", len(ref)).Debug("referential integrity checked")
	issues = append(issues, ref...)

	// V2: identity block
	issues = append(issues, checkIdentity(m)...)

	// V3: grant flow and contract paths
	flow := checkGrantFlow(m)
	log.WithField("issues", len(flow)).Debug("grant flow checked")
	issues = append(issues, flow...)

	// V4: circular handoffs
	issues = append(issues, checkCycles(m)...)

	// V5: orphan skills
	issues = append(issues, checkReachability(m)...)

	// Deploy payload skills the store could not resolve
	if o.deploy != nil {
		issues = append(issues, checkLoadable(o.deploy.Skills)...)
	}

	// V6: connector bindings (deploy context only)
	if o.deploy.active() {
		conn := checkConnectors(m, o.deploy, o.reservedRoots)
		log.WithField("issues", len(conn)).Debug("connector bindings checked")
		issues = append(issues, conn...)
	}

	res := aggregate(sol, m, issues)
	log.WithFields(logrus.Fields{
		"errors":   res.Summary.ErrorCount,
		"warnings": res.Summary.WarningCount,
	}).Debug("validation complete")
	return res
}

func aggregate(sol *solution.Solution, m *graph.Model, issues []Issue) *Result {
	res := &Result{
		Errors:   []Issue{},
		Warnings: []Issue{},
		Summary: Summary{
			Skills:             len(sol.Skills),
			Grants:             len(sol.Grants),
			Handoffs:           len(sol.Handoffs),
			Channels:           len(m.Channels),
			PlatformConnectors: len(sol.PlatformConnectors),
			SecurityContracts:  len(sol.SecurityContracts),
		},
	}
	for _, is := range issues {
		switch is.Severity.Normalize() {
		case SeverityError:
			res.Errors = append(res.Errors, is)
		case SeverityWarning:
			res.Warnings = append(res.Warnings, is)
		}
	}
	res.Valid = len(res.Errors) == 0
	res.Summary.ErrorCount = len(res.Errors)
	res.Summary.WarningCount = len(res.Warnings)
	return res
}

// ValidateFile runs the full pipeline on a solution file:
// structural (decode) → semantic (JSON Schema) → domain.
// Schema violations are merged with the domain issues. The returned
// solution is nil when the file could not be decoded.
func ValidateFile(path string, opts ...Option) (*solution.Solution, *Result, error) {
	sol, err := solution.LoadFile(path)
	if err != nil {
		return nil, failed(nil, []Issue{newIssue(CheckSchemaValid, "", "failed to load: %s", err)}), nil
	}
	res, err := ValidateSolution(sol, opts...)
	return sol, res, err
}

// ValidateSolution runs the semantic and domain phases on a decoded solution.
func ValidateSolution(sol *solution.Solution, opts ...Option) (*Result, error) {
	if sol == nil {
		return nil, ErrNilSolution
	}
	return run(sol, collect(opts), checkSchema(sol)), nil
}

func checkSchema(sol *solution.Solution) []Issue {
	var issues []Issue
	for _, v := range solution.CheckSchema(sol) {
		issues = append(issues, newIssue(CheckSchemaValid, v.Path, "%s", v.Message))
	}
	return issues
}

func failed(sol *solution.Solution, issues []Issue) *Result {
	if sol == nil {
		sol = &solution.Solution{}
	}
	return aggregate(sol, graph.Build(sol), issues)
}
