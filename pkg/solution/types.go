// Package solution defines the solution topology and implementation skill
// documents that meshcheck validates.
package solution

// ---------------------------------------------------------------------------
// Solution
// ---------------------------------------------------------------------------

// Solution is a composed set of skills plus the cross-skill contracts that
// govern their interaction.
type Solution struct {
	ID                 string                  `yaml:"id"                            json:"id"`
	Name               string                  `yaml:"name,omitempty"                json:"name,omitempty"`
	Description        string                  `yaml:"description,omitempty"         json:"description,omitempty"`
	Version            string                  `yaml:"version,omitempty"             json:"version,omitempty"`
	Skills             []TopologySkill         `yaml:"skills,omitempty"              json:"skills,omitempty"`
	Grants             []Grant                 `yaml:"grants,omitempty"              json:"grants,omitempty"`
	Handoffs           []Handoff               `yaml:"handoffs,omitempty"            json:"handoffs,omitempty"`
	Routing            map[string]RoutingEntry `yaml:"routing,omitempty"             json:"routing,omitempty"`
	PlatformConnectors []PlatformConnector     `yaml:"platform_connectors,omitempty" json:"platform_connectors,omitempty"`
	SecurityContracts  []SecurityContract      `yaml:"security_contracts,omitempty"  json:"security_contracts,omitempty"`
	Identity           *Identity               `yaml:"identity,omitempty"            json:"identity,omitempty"`
}

// SkillRole enumerates the roles a skill can play in the topology.
type SkillRole string

const (
	RoleGateway      SkillRole = "gateway"
	RoleWorker       SkillRole = "worker"
	RoleOrchestrator SkillRole = "orchestrator"
	RoleApproval     SkillRole = "approval"
)

// TopologySkill is the lightweight reference to a skill inside a solution.
type TopologySkill struct {
	ID            string    `yaml:"id"                       json:"id"`
	Role          SkillRole `yaml:"role,omitempty"           json:"role,omitempty" jsonschema:"enum=gateway,enum=worker,enum=orchestrator,enum=approval"`
	Description   string    `yaml:"description,omitempty"    json:"description,omitempty"`
	EntryChannels []string  `yaml:"entry_channels,omitempty" json:"entry_channels,omitempty"`
	Connectors    []string  `yaml:"connectors,omitempty"     json:"connectors,omitempty"`
}

// Grant is a verified claim produced by one skill and required by another.
type Grant struct {
	Key         string   `yaml:"key"                   json:"key" jsonschema:"minLength=1"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	IssuedBy    []string `yaml:"issued_by,omitempty"   json:"issued_by,omitempty"`
	ConsumedBy  []string `yaml:"consumed_by,omitempty" json:"consumed_by,omitempty"`
	Internal    bool     `yaml:"internal,omitempty"    json:"internal,omitempty"`
	TTL         string   `yaml:"ttl,omitempty"         json:"ttl,omitempty"`
}

// MechanismInternal is the handoff mechanism for in-platform messaging.
// Any other mechanism value names a connector id.
const MechanismInternal = "internal-message"

// Handoff is a directed transfer of a conversation from one skill to another.
type Handoff struct {
	ID           string   `yaml:"id"                      json:"id"`
	From         string   `yaml:"from"                    json:"from"`
	To           string   `yaml:"to"                      json:"to"`
	Trigger      string   `yaml:"trigger,omitempty"       json:"trigger,omitempty"`
	GrantsPassed []string `yaml:"grants_passed,omitempty" json:"grants_passed,omitempty"`
	Mechanism    string   `yaml:"mechanism,omitempty"     json:"mechanism,omitempty"`
}

// Carries reports whether the handoff lists key in grants_passed.
func (h Handoff) Carries(key string) bool {
	for _, g := range h.GrantsPassed {
		if g == key {
			return true
		}
	}
	return false
}

// RoutingEntry maps a channel to the skill that answers it by default.
type RoutingEntry struct {
	DefaultSkill string `yaml:"default_skill"         json:"default_skill"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
}

// PlatformConnector is a connector declared at the solution level.
type PlatformConnector struct {
	ID          string `yaml:"id"                    json:"id"`
	Name        string `yaml:"name,omitempty"        json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty"    json:"required,omitempty"`
}

// SecurityContract asserts that a consumer skill must have received specific
// grants via a traceable handoff path from a named provider.
type SecurityContract struct {
	Name           string   `yaml:"name"                      json:"name" jsonschema:"minLength=1"`
	Provider       string   `yaml:"provider,omitempty"        json:"provider,omitempty"`
	Consumer       string   `yaml:"consumer"                  json:"consumer"`
	RequiresGrants []string `yaml:"requires_grants,omitempty" json:"requires_grants,omitempty"`
}

// Identity declares the actor model of a solution.
type Identity struct {
	ActorTypes       []string `yaml:"actor_types,omitempty"        json:"actor_types,omitempty"`
	AdminRoles       []string `yaml:"admin_roles,omitempty"        json:"admin_roles,omitempty"`
	DefaultActorType string   `yaml:"default_actor_type,omitempty" json:"default_actor_type,omitempty"`
}

// ---------------------------------------------------------------------------
// Implementation skill
// ---------------------------------------------------------------------------

// StatusNotFound marks an implementation skill the store could not load.
const StatusNotFound = "NOT_FOUND"

// Skill is the full implementation record of a skill, as loaded from storage.
type Skill struct {
	ID              string     `yaml:"id"                          json:"id"`
	Name            string     `yaml:"name,omitempty"              json:"name,omitempty"`
	OriginalSkillID string     `yaml:"original_skill_id,omitempty" json:"original_skill_id,omitempty"`
	Description     string     `yaml:"description,omitempty"       json:"description,omitempty"`
	Role            string     `yaml:"role,omitempty"              json:"role,omitempty"`
	Prompt          string     `yaml:"prompt,omitempty"            json:"prompt,omitempty"`
	Tools           []Tool     `yaml:"tools,omitempty"             json:"tools,omitempty"`
	MetaTools       []Tool     `yaml:"meta_tools,omitempty"        json:"meta_tools,omitempty"`
	Connectors      []string   `yaml:"connectors,omitempty"        json:"connectors,omitempty"`
	Scenarios       []Scenario `yaml:"scenarios,omitempty"         json:"scenarios,omitempty"`
	Intents         Intents    `yaml:"intents,omitempty"           json:"intents,omitempty"`
	Guardrails      Guardrails `yaml:"guardrails,omitempty"        json:"guardrails,omitempty"`
	UICapable       bool       `yaml:"ui_capable,omitempty"        json:"ui_capable,omitempty"`
	UIPlugins       []UIPlugin `yaml:"ui_plugins,omitempty"        json:"ui_plugins,omitempty"`

	// Load state, set by the store.
	Status    string `yaml:"-" json:"status,omitempty"`
	LoadError string `yaml:"-" json:"load_error,omitempty"`
}

// Missing reports whether the skill is a degraded placeholder.
func (s *Skill) Missing() bool {
	return s.Status == StatusNotFound
}

// SourceMCPBridge is the tool source type that binds a tool to a connector.
const SourceMCPBridge = "mcp_bridge"

// Tool is a capability a skill can call.
type Tool struct {
	ID          string      `yaml:"id,omitempty"          json:"id,omitempty"`
	Name        string      `yaml:"name"                  json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Source      *ToolSource `yaml:"source,omitempty"      json:"source,omitempty"`
}

// ToolSource describes where a tool implementation lives.
type ToolSource struct {
	Type         string `yaml:"type"                    json:"type"`
	ConnectionID string `yaml:"connection_id,omitempty" json:"connection_id,omitempty"`
	MCPTool      string `yaml:"mcp_tool,omitempty"      json:"mcp_tool,omitempty"`
}

// Scenario is a worked example conversation for a skill.
type Scenario struct {
	ID          string `yaml:"id,omitempty"          json:"id,omitempty"`
	Title       string `yaml:"title"                 json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Intents lists what a skill answers to.
type Intents struct {
	Supported []Intent `yaml:"supported,omitempty" json:"supported,omitempty"`
}

// Intent is a supported user intent with example utterances.
type Intent struct {
	ID          string   `yaml:"id,omitempty"          json:"id,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Examples    []string `yaml:"examples,omitempty"    json:"examples,omitempty"`
}

// Guardrails are the behavioural lists a skill must obey.
type Guardrails struct {
	Always []string `yaml:"always,omitempty" json:"always,omitempty"`
	Never  []string `yaml:"never,omitempty"  json:"never,omitempty"`
}

// UIPlugin is a UI surface rendered by a connector.
type UIPlugin struct {
	ID        string `yaml:"id"                   json:"id"`
	Name      string `yaml:"name,omitempty"       json:"name,omitempty"`
	MCPServer string `yaml:"mcp_server,omitempty" json:"mcp_server,omitempty"`
}

// ---------------------------------------------------------------------------
// Deploy payload
// ---------------------------------------------------------------------------

// Transport values for connectors.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"
)

// Connector is an external tool-providing process bound to skills.
type Connector struct {
	ID        string   `yaml:"id"                  json:"id"`
	Name      string   `yaml:"name,omitempty"      json:"name,omitempty"`
	Transport string   `yaml:"transport,omitempty" json:"transport,omitempty" jsonschema:"enum=stdio,enum=http,enum=sse"`
	Command   string   `yaml:"command,omitempty"   json:"command,omitempty"`
	Args      []string `yaml:"args,omitempty"      json:"args,omitempty"`
	URL       string   `yaml:"url,omitempty"       json:"url,omitempty"`
	Tools     []string `yaml:"tools,omitempty"     json:"tools,omitempty"`
}

// IsStdio reports whether the connector is launched as a local process.
// An empty transport defaults to stdio.
func (c Connector) IsStdio() bool {
	return c.Transport == "" || c.Transport == TransportStdio
}

// SourceFile is one file of a connector's server source in the mcp-store.
type SourceFile struct {
	Path    string `yaml:"path"    json:"path"`
	Content string `yaml:"content" json:"content"`
}
