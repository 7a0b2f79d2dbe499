// Package agentcard provides a declarative builder for synthesizing an
// a2a.AgentCard: a language without runtime method attributes expresses
// "skill metadata on a handler method" as a builder call instead, following
// the functional-options pattern used throughout pkg/task and pkg/server.
package agentcard

import "github.com/agent-protocol/a2a-go/pkg/a2a"

// SkillSpec is the declarative equivalent of annotating a handler method
// with {name?, description?, tags?, examples?}.
type SkillSpec struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	Examples    []string
}

// Builder accumulates skill declarations and agent-level metadata, then
// synthesizes an a2a.AgentCard from a construction-time sequence of
// explicit calls instead of reflection over annotations.
type Builder struct {
	name         string
	description  string
	version      string
	url          string
	capabilities map[string]bool
	skills       []SkillSpec
	provider     *a2a.AgentProvider
}

// New starts a builder for an agent named name at url.
func New(name, url, version string) *Builder {
	return &Builder{name: name, url: url, version: version, capabilities: make(map[string]bool)}
}

func (b *Builder) Describe(description string) *Builder {
	b.description = description
	return b
}

func (b *Builder) Provider(organization, url string) *Builder {
	b.provider = &a2a.AgentProvider{Organization: organization, URL: url}
	return b
}

// Capability declares a capability key as present. Unlisted capabilities
// report false from AgentCard.HasCapability.
func (b *Builder) Capability(key string) *Builder {
	b.capabilities[key] = true
	return b
}

// Skill registers one skill annotation, the per-method equivalent of a
// decorator in languages that support one.
func (b *Builder) Skill(s SkillSpec) *Builder {
	b.skills = append(b.skills, s)
	return b
}

// Card synthesizes the AgentCard from everything declared so far. Synthesis
// is purely declarative: nothing here changes handler runtime behavior.
func (b *Builder) Card() a2a.AgentCard {
	skills := make([]a2a.AgentSkill, 0, len(b.skills))
	for _, s := range b.skills {
		skills = append(skills, a2a.AgentSkill{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Tags:        s.Tags,
			Examples:    s.Examples,
		})
	}
	return a2a.AgentCard{
		Name:         b.name,
		Description:  b.description,
		URL:          b.url,
		Version:      b.version,
		Provider:     b.provider,
		Capabilities: b.capabilities,
		Skills:       skills,
	}
}
