// Package report turns a validation result into the leveled, scored
// validation report shown to solution authors.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ormasoftchile/meshcheck/pkg/solution"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// Status is the overall verdict of a report.
type Status string

const (
	StatusValid   Status = "valid"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Score weights.
const (
	maxScore       = 100
	errorPenalty   = 15
	warningPenalty = 5
)

// Input carries what the report needs beyond the solution itself.
type Input struct {
	// Skills are the implementation skills resolved by the store,
	// including NOT_FOUND placeholders.
	Skills []solution.Skill
	// Intelligent holds externally computed quality findings. They are
	// merged into level 3 verbatim.
	Intelligent []validate.Issue
	// GeneratedAt defaults to the current time.
	GeneratedAt time.Time
}

// Report is the leveled validation report.
type Report struct {
	ID                 string            `json:"id"`
	SolutionID         string            `json:"solution_id"`
	SolutionName       string            `json:"solution_name,omitempty"`
	GeneratedAt        time.Time         `json:"generated_at"`
	Summary            Summary           `json:"summary"`
	SkillMapping       []SkillMapping    `json:"skill_mapping"`
	Level1Technical    []validate.Issue  `json:"level_1_technical"`
	Level2Completeness []validate.Issue  `json:"level_2_completeness"`
	Level3Intelligent  []validate.Issue  `json:"level_3_intelligent"`
	PerSkillValidation []SkillValidation `json:"per_skill_validation"`
}

// Summary aggregates counts across all three levels.
type Summary struct {
	Errors            int                    `json:"errors"`
	Warnings          int                    `json:"warnings"`
	Info              int                    `json:"info"`
	Total             int                    `json:"total"`
	Status            Status                 `json:"status"`
	Score             int                    `json:"score"`
	Skills            SkillSummary           `json:"skills"`
	Security          SecuritySummary        `json:"security"`
	ConsistencyChecks map[string]CheckStatus `json:"consistency_checks"`
}

// SkillSummary counts topology and implementation skills by mapping state.
type SkillSummary struct {
	Topology       int `json:"topology"`
	Implementation int `json:"implementation"`
	Mapped         int `json:"mapped"`
	Unmapped       int `json:"unmapped"`
	Orphan         int `json:"orphan"`
	NotFound       int `json:"not_found"`
}

// SecuritySummary counts the security-relevant entities.
type SecuritySummary struct {
	Grants             int `json:"grants"`
	Handoffs           int `json:"handoffs"`
	Contracts          int `json:"contracts"`
	ContractsSatisfied int `json:"contracts_satisfied"`
}

// CheckStatus is the outcome of one technical check.
type CheckStatus struct {
	Status string `json:"status"` // pass, warn, fail
	Count  int    `json:"count"`
}

// SkillValidation collects the issues attributed to one implementation skill.
type SkillValidation struct {
	SkillID  string           `json:"skill_id"`
	Name     string           `json:"name,omitempty"`
	Status   string           `json:"status"` // ok, NOT_FOUND
	Errors   int              `json:"errors"`
	Warnings int              `json:"warnings"`
	Info     int              `json:"info"`
	Issues   []validate.Issue `json:"issues"`
}

// Generate runs the schema and domain checks on sol and builds the report.
// Deploy-context checks run when opts carry validate.WithDeployContext.
func Generate(sol *solution.Solution, in Input, opts ...validate.Option) (*Report, error) {
	res, err := validate.ValidateSolution(sol, opts...)
	if err != nil {
		return nil, err
	}
	return Build(sol, res, in), nil
}

// Build assembles the report from an existing validation result.
func Build(sol *solution.Solution, res *validate.Result, in Input) *Report {
	r := &Report{
		ID:                 uuid.NewString(),
		SolutionID:         sol.ID,
		SolutionName:       sol.Name,
		GeneratedAt:        in.GeneratedAt,
		Level1Technical:    []validate.Issue{},
		Level2Completeness: []validate.Issue{},
		Level3Intelligent:  []validate.Issue{},
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}

	unloadable := make(map[string]bool)
	for _, is := range res.Issues() {
		if is.Check.Level() == validate.LevelCompleteness {
			if is.Check == validate.CheckSkillLoadable {
				unloadable[is.Skill] = true
			}
			r.Level2Completeness = append(r.Level2Completeness, is)
			continue
		}
		r.Level1Technical = append(r.Level1Technical, is)
	}
	r.Level2Completeness = append(r.Level2Completeness, checkCompleteness(in.Skills, unloadable)...)
	r.Level3Intelligent = append(r.Level3Intelligent, in.Intelligent...)

	r.SkillMapping = MapSkills(sol.Skills, in.Skills)
	r.PerSkillValidation = perSkill(in.Skills, r.SkillMapping, r.allIssues())
	r.Summary = r.summarize(sol)
	return r
}

func (r *Report) allIssues() []validate.Issue {
	out := make([]validate.Issue, 0, len(r.Level1Technical)+len(r.Level2Completeness)+len(r.Level3Intelligent))
	out = append(out, r.Level1Technical...)
	out = append(out, r.Level2Completeness...)
	return append(out, r.Level3Intelligent...)
}

func (r *Report) summarize(sol *solution.Solution) Summary {
	s := Summary{ConsistencyChecks: consistency(r.Level1Technical)}
	for _, is := range r.allIssues() {
		switch is.Severity.Normalize() {
		case validate.SeverityError:
			s.Errors++
		case validate.SeverityWarning:
			s.Warnings++
		default:
			s.Info++
		}
	}
	s.Total = s.Errors + s.Warnings + s.Info
	s.Score = Score(s.Errors, s.Warnings)
	s.Status = statusOf(s.Errors, s.Warnings)

	s.Skills.Topology = len(sol.Skills)
	for _, m := range r.SkillMapping {
		switch m.Status {
		case Mapped:
			s.Skills.Mapped++
		case Unmapped:
			s.Skills.Unmapped++
		case Orphan:
			s.Skills.Orphan++
		}
	}
	for _, p := range r.PerSkillValidation {
		s.Skills.Implementation++
		if p.Status == solution.StatusNotFound {
			s.Skills.NotFound++
		}
	}

	s.Security = SecuritySummary{
		Grants:    len(sol.Grants),
		Handoffs:  len(sol.Handoffs),
		Contracts: len(sol.SecurityContracts),
	}
	broken := make(map[string]bool)
	for _, is := range r.Level1Technical {
		if is.Contract != "" && is.Severity.Normalize() != validate.SeverityInfo {
			broken[is.Contract] = true
		}
	}
	for _, c := range sol.SecurityContracts {
		if !broken[c.Name] {
			s.Security.ContractsSatisfied++
		}
	}
	return s
}

// Score is 100 minus 15 per error and 5 per warning, clamped to [0, 100].
func Score(errors, warnings int) int {
	score := maxScore - errorPenalty*errors - warningPenalty*warnings
	switch {
	case score < 0:
		return 0
	case score > maxScore:
		return maxScore
	}
	return score
}

func statusOf(errors, warnings int) Status {
	switch {
	case errors > 0:
		return StatusError
	case warnings > 0:
		return StatusWarning
	}
	return StatusValid
}

// consistency reports every technical check, including those that passed.
func consistency(issues []validate.Issue) map[string]CheckStatus {
	out := make(map[string]CheckStatus)
	for _, c := range validate.Checks() {
		if c.Level() == validate.LevelTechnical {
			out[string(c)] = CheckStatus{Status: "pass"}
		}
	}
	for _, is := range issues {
		cs := out[string(is.Check)]
		cs.Count++
		if is.Severity.Normalize() == validate.SeverityError {
			cs.Status = "fail"
		} else if cs.Status != "fail" {
			cs.Status = "warn"
		}
		out[string(is.Check)] = cs
	}
	return out
}

func perSkill(impls []solution.Skill, mapping []SkillMapping, issues []validate.Issue) []SkillValidation {
	// Issues name either the implementation id or the topology id.
	aliases := make(map[string]string)
	for _, m := range mapping {
		if m.TopologyID != "" && m.ImplementationID != "" {
			aliases[m.TopologyID] = m.ImplementationID
		}
	}

	out := make([]SkillValidation, 0, len(impls))
	index := make(map[string]int, len(impls))
	for _, sk := range impls {
		if _, dup := index[sk.ID]; dup {
			continue
		}
		status := "ok"
		if sk.Missing() {
			status = solution.StatusNotFound
		}
		index[sk.ID] = len(out)
		out = append(out, SkillValidation{SkillID: sk.ID, Name: sk.Name, Status: status, Issues: []validate.Issue{}})
	}
	for _, is := range issues {
		id := is.Skill
		if impl, ok := aliases[id]; ok {
			id = impl
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		sv := &out[i]
		sv.Issues = append(sv.Issues, is)
		switch is.Severity.Normalize() {
		case validate.SeverityError:
			sv.Errors++
		case validate.SeverityWarning:
			sv.Warnings++
		default:
			sv.Info++
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	return out
}
