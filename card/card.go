// Package card builds chara_card_v3 character cards and embeds them in PNG
// images the way chat front ends expect: base64 JSON in a tEXt chunk
// keyed "chara".
package card

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/use-agent/charscrape/models"
)

const (
	SpecName    = "chara_card_v3"
	SpecVersion = "3.0"

	// DefaultCreator is used when no creator is configured.
	DefaultCreator = "Anonymous"

	maxNameRunes = 100
)

// Card is the chara_card_v3 document. The top-level profile fields repeat
// Data for readers that only understand the older layout.
type Card struct {
	Data        Data   `json:"data"`
	Spec        string `json:"spec"`
	SpecVersion string `json:"spec_version"`

	Name        string `json:"name"`
	Fav         bool   `json:"fav"`
	Description string `json:"description"`
	Personality string `json:"personality"`
	Scenario    string `json:"scenario"`
	FirstMes    string `json:"first_mes"`
	MesExample  string `json:"mes_example"`
}

type Data struct {
	Name                    string     `json:"name"`
	Description             string     `json:"description"`
	Personality             string     `json:"personality"`
	FirstMes                string     `json:"first_mes"`
	Avatar                  string     `json:"avatar"`
	MesExample              string     `json:"mes_example"`
	Scenario                string     `json:"scenario"`
	CreatorNotes            string     `json:"creator_notes"`
	SystemPrompt            string     `json:"system_prompt"`
	PostHistoryInstructions string     `json:"post_history_instructions"`
	AlternateGreetings      []string   `json:"alternate_greetings"`
	Tags                    []string   `json:"tags"`
	Creator                 string     `json:"creator"`
	CharacterVersion        string     `json:"character_version"`
	Extensions              Extensions `json:"extensions"`
	GroupOnlyGreetings      []string   `json:"group_only_greetings"`
}

type Extensions struct {
	DepthPrompt   DepthPrompt `json:"depth_prompt"`
	Fav           bool        `json:"fav"`
	Talkativeness string      `json:"talkativeness"`
	World         string      `json:"world"`
}

type DepthPrompt struct {
	Prompt string `json:"prompt"`
	Depth  int    `json:"depth"`
	Role   string `json:"role"`
}

// New builds a card from a generated profile. The name is capped at 100
// runes.
func New(p *models.Profile, creator string) *Card {
	if creator == "" {
		creator = DefaultCreator
	}
	name := truncateRunes(p.Name, maxNameRunes)
	return &Card{
		Data: Data{
			Name:               name,
			Description:        p.Description,
			Personality:        p.Personality,
			FirstMes:           p.Greeting,
			Avatar:             "none",
			MesExample:         p.Examples,
			Scenario:           p.Scenario,
			AlternateGreetings: []string{},
			Tags:               []string{},
			Creator:            creator,
			Extensions: Extensions{
				DepthPrompt:   DepthPrompt{Role: "system"},
				Talkativeness: "0.5",
			},
			GroupOnlyGreetings: []string{},
		},
		Spec:        SpecName,
		SpecVersion: SpecVersion,
		Name:        name,
		Description: p.Description,
		Personality: p.Personality,
		Scenario:    p.Scenario,
		FirstMes:    p.Greeting,
		MesExample:  p.Examples,
	}
}

// Encode returns the card as base64 JSON, the payload of the chara chunk.
func (c *Card) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal card: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode parses a chara chunk payload.
func Decode(payload string) (*Card, error) {
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode chara payload: %w", err)
	}
	var c Card
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal card: %w", err)
	}
	return &c, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
