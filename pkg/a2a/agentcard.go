package a2a

import "encoding/json"

// AgentProvider identifies the organisation that operates an agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitempty"`
}

// AgentAuthentication describes how a client must authenticate to an agent.
type AgentAuthentication struct {
	Schemes     []string `json:"schemes"`
	Credentials string   `json:"credentials,omitempty"`
}

// AgentSkill describes one capability an agent advertises.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"input_modes,omitempty"`
	OutputModes []string `json:"output_modes,omitempty"`
}

// Well-known capability keys. Unknown keys are preserved as-is by the
// codec (Capabilities is a plain map), so adapters can advertise their own.
const (
	CapabilityStreaming               = "streaming"
	CapabilityPushNotifications       = "pushNotifications"
	CapabilityStateTransitionHistory  = "stateTransitionHistory"
	CapabilityGoogleA2ACompatible     = "google_a2a_compatible"
	CapabilityPartsArrayFormat        = "parts_array_format"
	CapabilityAgentDiscovery          = "agent_discovery"
	CapabilityRegistry                = "registry"
)

// AgentCard is the self-describing capability document an agent serves at
// GET /agent.json. It is owned by the agent it describes; caches hold it by
// value and treat it as immutable per fetch.
type AgentCard struct {
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	URL                string          `json:"url"`
	Version            string          `json:"version"`
	Provider           *AgentProvider  `json:"provider,omitempty"`
	DocumentationURL   string          `json:"documentation_url,omitempty"`
	Capabilities       map[string]bool `json:"capabilities"`
	DefaultInputModes  []string        `json:"default_input_modes,omitempty"`
	DefaultOutputModes []string        `json:"default_output_modes,omitempty"`
	Skills             []AgentSkill    `json:"skills"`
	Authentication     *AgentAuthentication `json:"authentication,omitempty"`

	// Extra holds top-level fields this decode didn't recognize, preserved
	// verbatim so decode(encode(c)) round-trips forward-compatibly.
	Extra map[string]any `json:"-"`
}

type agentCardAlias AgentCard

var agentCardKnownFields = map[string]struct{}{
	"name": {}, "description": {}, "url": {}, "version": {}, "provider": {},
	"documentation_url": {}, "capabilities": {}, "default_input_modes": {},
	"default_output_modes": {}, "skills": {}, "authentication": {},
}

// UnmarshalJSON decodes the typed fields and preserves any unrecognised
// top-level fields in Extra.
func (c *AgentCard) UnmarshalJSON(data []byte) error {
	var a agentCardAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		for k, v := range raw {
			if _, known := agentCardKnownFields[k]; known {
				continue
			}
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				continue
			}
			if a.Extra == nil {
				a.Extra = make(map[string]any)
			}
			a.Extra[k] = val
		}
	}
	*c = AgentCard(a)
	return nil
}

// MarshalJSON emits the typed fields plus any Extra fields captured on
// decode, so unknown top-level keys survive a round trip.
func (c AgentCard) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(agentCardAlias(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return data, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// HasCapability reports whether the card declares the named capability as
// true. Unknown/absent capabilities are treated as false.
func (c AgentCard) HasCapability(name string) bool {
	if c.Capabilities == nil {
		return false
	}
	return c.Capabilities[name]
}

// PrefersPartsArray reports whether a peer advertising this card wants the
// Google-compat parts-array wire shape, per SPEC_FULL.md's pinned rule.
func (c AgentCard) PrefersPartsArray() bool {
	return c.HasCapability(CapabilityPartsArrayFormat) || c.HasCapability(CapabilityGoogleA2ACompatible)
}
