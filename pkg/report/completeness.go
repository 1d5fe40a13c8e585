package report

import (
	"github.com/ormasoftchile/meshcheck/pkg/solution"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// checkCompleteness runs the level 2 presence checks on implementation
// skills. A skill the store could not load yields only skill_loadable.
// Skills already reported unloadable in seen are not reported again.
func checkCompleteness(impls []solution.Skill, seen map[string]bool) []validate.Issue {
	var issues []validate.Issue
	for i := range impls {
		sk := &impls[i]
		if sk.Missing() {
			if seen[sk.ID] {
				continue
			}
			issues = append(issues, validate.LoadableIssue(sk))
			continue
		}
		if len(sk.Tools) == 0 && len(sk.MetaTools) == 0 {
			issues = append(issues, validate.NewCompletenessIssue(validate.CheckSkillTools, sk.ID,
				"skill %q declares no tools", sk.ID))
		}
		if sk.Prompt == "" {
			issues = append(issues, validate.NewCompletenessIssue(validate.CheckSkillPrompt, sk.ID,
				"skill %q has no prompt", sk.ID))
		}
		if sk.Description == "" {
			issues = append(issues, validate.NewCompletenessIssue(validate.CheckSkillDescription, sk.ID,
				"skill %q has no description", sk.ID))
		}
		if !hasExamples(sk) {
			issues = append(issues, validate.NewCompletenessIssue(validate.CheckSkillExamples, sk.ID,
				"skill %q has no example utterances or scenarios", sk.ID))
		}
	}
	return issues
}

func hasExamples(sk *solution.Skill) bool {
	if len(sk.Scenarios) > 0 {
		return true
	}
	for _, in := range sk.Intents.Supported {
		if len(in.Examples) > 0 {
			return true
		}
	}
	return false
}
