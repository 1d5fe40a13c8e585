package validate

import "fmt"

// Severity classifies an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"

	// Upstream analysis may use these; they count as error and info.
	SeverityBlocker    Severity = "blocker"
	SeveritySuggestion Severity = "suggestion"
)

// Normalize folds upstream severities into error, warning or info.
// Unknown values count as info.
func (s Severity) Normalize() Severity {
	switch s {
	case SeverityError, SeverityBlocker:
		return SeverityError
	case SeverityWarning:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Level is the report bucket an issue belongs to.
type Level string

const (
	LevelTechnical    Level = "technical"
	LevelCompleteness Level = "completeness"
	LevelIntelligent  Level = "intelligent"
)

// Check identifies the rule that produced an issue.
type Check string

const (
	// Structural and semantic phases.
	CheckSchemaValid Check = "schema_valid"

	// Referential integrity.
	CheckSkillIDUnique          Check = "skill_id_unique"
	CheckGrantKeyUnique         Check = "grant_key_unique"
	CheckGrantProviderExists    Check = "grant_provider_exists"
	CheckGrantConsumerExists    Check = "grant_consumer_exists"
	CheckHandoffSourceExists    Check = "handoff_source_exists"
	CheckHandoffTargetExists    Check = "handoff_target_exists"
	CheckRoutingTargetExists    Check = "routing_target_exists"
	CheckContractConsumerExists Check = "contract_consumer_exists"
	CheckContractProviderExists Check = "contract_provider_exists"
	CheckIdentityDefaultActor   Check = "identity_default_actor_type"
	CheckIdentityAdminRoles     Check = "identity_admin_roles"
	CheckIdentityActorTypes     Check = "identity_actor_types"

	// Grant flow.
	CheckGrantProviderMissing Check = "grant_provider_missing"
	CheckContractHandoffPath  Check = "contract_handoff_path"
	CheckGrantsPassedMatch    Check = "grants_passed_match"

	// Graph shape.
	CheckCircularHandoffs Check = "circular_handoffs"
	CheckNoOrphanSkills   Check = "no_orphan_skills"

	// Deploy context.
	CheckMCPBridgeConnectorExists Check = "mcp_bridge_connector_exists"
	CheckConnectorCodeAvailable   Check = "connector_code_available"
	CheckConnectorNoAbsolutePaths Check = "connector_no_absolute_paths"
	CheckConnectorDeclared        Check = "connector_declared"
	CheckConnectorUnused          Check = "connector_unused"
	CheckUIPluginConnectorExists  Check = "ui_plugin_connector_exists"
	CheckUIDiscoveryTools         Check = "ui_discovery_tools"

	// Completeness of implementation skills.
	CheckSkillLoadable    Check = "skill_loadable"
	CheckSkillTools       Check = "skill_tools"
	CheckSkillPrompt      Check = "skill_prompt"
	CheckSkillDescription Check = "skill_description"
	CheckSkillExamples    Check = "skill_examples"
)

type checkSpec struct {
	severity Severity
	level    Level
}

// checkSpecs fixes the severity and report level of every known check.
var checkSpecs = map[Check]checkSpec{
	CheckSchemaValid: {SeverityError, LevelTechnical},

	CheckSkillIDUnique:          {SeverityError, LevelTechnical},
	CheckGrantKeyUnique:         {SeverityError, LevelTechnical},
	CheckGrantProviderExists:    {SeverityError, LevelTechnical},
	CheckGrantConsumerExists:    {SeverityError, LevelTechnical},
	CheckHandoffSourceExists:    {SeverityError, LevelTechnical},
	CheckHandoffTargetExists:    {SeverityError, LevelTechnical},
	CheckRoutingTargetExists:    {SeverityError, LevelTechnical},
	CheckContractConsumerExists: {SeverityError, LevelTechnical},
	CheckContractProviderExists: {SeverityError, LevelTechnical},
	CheckIdentityDefaultActor:   {SeverityError, LevelTechnical},
	CheckIdentityAdminRoles:     {SeverityWarning, LevelTechnical},
	CheckIdentityActorTypes:     {SeverityWarning, LevelTechnical},

	CheckGrantProviderMissing: {SeverityError, LevelTechnical},
	CheckContractHandoffPath:  {SeverityWarning, LevelTechnical},
	CheckGrantsPassedMatch:    {SeverityError, LevelTechnical},

	CheckCircularHandoffs: {SeverityError, LevelTechnical},
	CheckNoOrphanSkills:   {SeverityWarning, LevelTechnical},

	CheckMCPBridgeConnectorExists: {SeverityError, LevelTechnical},
	CheckConnectorCodeAvailable:   {SeverityError, LevelTechnical},
	CheckConnectorNoAbsolutePaths: {SeverityError, LevelTechnical},
	CheckConnectorDeclared:        {SeverityWarning, LevelTechnical},
	CheckConnectorUnused:          {SeverityWarning, LevelTechnical},
	CheckUIPluginConnectorExists:  {SeverityError, LevelTechnical},
	CheckUIDiscoveryTools:         {SeverityWarning, LevelTechnical},

	CheckSkillLoadable:    {SeverityError, LevelCompleteness},
	CheckSkillTools:       {SeverityWarning, LevelCompleteness},
	CheckSkillPrompt:      {SeverityWarning, LevelCompleteness},
	CheckSkillDescription: {SeverityInfo, LevelCompleteness},
	CheckSkillExamples:    {SeverityInfo, LevelCompleteness},
}

// Known reports whether c is one of meshcheck's own checks.
func (c Check) Known() bool {
	_, ok := checkSpecs[c]
	return ok
}

// Severity returns the fixed severity of a known check, or info.
func (c Check) Severity() Severity {
	if s, ok := checkSpecs[c]; ok {
		return s.severity
	}
	return SeverityInfo
}

// Level returns the report level of a known check. Checks not produced by
// meshcheck belong to the intelligent level.
func (c Check) Level() Level {
	if s, ok := checkSpecs[c]; ok {
		return s.level
	}
	return LevelIntelligent
}

// Checks returns every known check in a stable order.
func Checks() []Check {
	return []Check{
		CheckSchemaValid,
		CheckSkillIDUnique, CheckGrantKeyUnique,
		CheckGrantProviderExists, CheckGrantConsumerExists,
		CheckHandoffSourceExists, CheckHandoffTargetExists,
		CheckRoutingTargetExists,
		CheckContractConsumerExists, CheckContractProviderExists,
		CheckIdentityDefaultActor, CheckIdentityAdminRoles, CheckIdentityActorTypes,
		CheckGrantProviderMissing, CheckContractHandoffPath, CheckGrantsPassedMatch,
		CheckCircularHandoffs, CheckNoOrphanSkills,
		CheckMCPBridgeConnectorExists, CheckConnectorCodeAvailable,
		CheckConnectorNoAbsolutePaths, CheckConnectorDeclared, CheckConnectorUnused,
		CheckUIPluginConnectorExists, CheckUIDiscoveryTools,
		CheckSkillLoadable, CheckSkillTools, CheckSkillPrompt,
		CheckSkillDescription, CheckSkillExamples,
	}
}

// Issue is one finding. Entity fields are set only when relevant.
type Issue struct {
	Check    Check    `json:"check"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`

	Skill     string   `json:"skill,omitempty"`
	Grant     string   `json:"grant,omitempty"`
	Handoff   string   `json:"handoff,omitempty"`
	Handoffs  []string `json:"handoffs,omitempty"`
	Channel   string   `json:"channel,omitempty"`
	Contract  string   `json:"contract,omitempty"`
	Connector string   `json:"connector,omitempty"`
	Tool      string   `json:"tool,omitempty"`
	Cycle     []string `json:"cycle,omitempty"`
	Path      []string `json:"path,omitempty"`
	Fix       string   `json:"fix,omitempty"`
}

func (i Issue) String() string {
	if i.Location != "" {
		return fmt.Sprintf("[%s] %s at %s", i.Check, i.Message, i.Location)
	}
	return fmt.Sprintf("[%s] %s", i.Check, i.Message)
}

// newIssue builds an issue with the check's fixed severity.
func newIssue(c Check, loc, msg string, args ...any) Issue {
	return Issue{
		Check:    c,
		Severity: c.Severity(),
		Message:  fmt.Sprintf(msg, args...),
		Location: loc,
	}
}

// NewCompletenessIssue builds a completeness-level issue for skill.
func NewCompletenessIssue(c Check, skill, msg string, args ...any) Issue {
	is := newIssue(c, "", msg, args...)
	is.Skill = skill
	return is
}
