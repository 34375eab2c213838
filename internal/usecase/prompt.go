package usecase

import (
	"strings"

	"climate-dashboard/internal/domain"
)

// ApologyResponse is returned to chat callers when the reply pipeline itself breaks.
const ApologyResponse = "Sorry, I'm having trouble responding right now. Please try again later."

const defaultReply = "I'm the climate assistant for this dashboard. Ask me about deforestation, coral reefs, plastic waste, emissions, funding or NFTs."

// keywordReply maps message substrings to a canned answer. Order matters:
// the first entry with a matching keyword wins.
type keywordReply struct {
	keywords []string
	reply    string
}

var keywordReplies = []keywordReply{
	{
		keywords: []string{"dashboard"},
		reply:    "The dashboard gives you a live overview of environmental indicators: deforestation alerts, coral reef health, plastic waste hotspots and emission sources, all on one screen.",
	},
	{
		keywords: []string{"fund", "donat"},
		reply:    "You can support verified climate projects from the funding page. Contributions are tracked transparently so you can follow how every donation is used.",
	},
	{
		keywords: []string{"nft", "wallet", "blockchain", "web3"},
		reply:    "Connect your wallet to mint impact NFTs and track on-chain climate contributions. Every NFT represents a verified environmental action.",
	},
	{
		keywords: []string{"deforest", "forest", "tree"},
		reply:    "Deforestation alerts come from satellite monitoring. Check the map page to see recent forest loss hotspots and their severity.",
	},
	{
		keywords: []string{"coral", "reef", "ocean"},
		reply:    "Coral reefs are highly sensitive to rising sea temperatures. The analytics page tracks bleaching risk across monitored reefs.",
	},
	{
		keywords: []string{"plastic", "waste"},
		reply:    "Plastic waste hotspots are shown on the map. Reducing single-use plastics and supporting cleanup projects are the most direct ways to help.",
	},
	{
		keywords: []string{"carbon", "emission", "co2", "climate"},
		reply:    "Emission sources and air quality readings are available in the analytics section. Reducing energy use and supporting renewable projects cuts carbon emissions.",
	},
}

// KeywordReply picks the canned answer for message. Matching is a plain
// case-insensitive substring check against an English vocabulary.
func KeywordReply(message string) string {
	lower := strings.ToLower(message)
	for _, kr := range keywordReplies {
		for _, kw := range kr.keywords {
			if strings.Contains(lower, kw) {
				return kr.reply
			}
		}
	}
	return defaultReply
}

func buildSystemPrompt() string {
	return strings.Join([]string{
		"You are the assistant of a Web3 climate-action dashboard.",
		"The dashboard shows deforestation alerts, coral reef health, plastic waste hotspots and emission sources,",
		"and lets users fund climate projects and mint impact NFTs with their wallet.",
		"Answer in at most three short paragraphs.",
		"Stay on environmental and platform topics and encourage concrete climate action.",
		"If you do not know something, say so instead of guessing numbers.",
	}, "\n")
}

// sanitizeHistory keeps user/assistant turns with content, then the last max entries.
func sanitizeHistory(history []domain.ChatMessage, max int) []domain.ChatMessage {
	kept := make([]domain.ChatMessage, 0, len(history))
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if role != domain.RoleUser && role != domain.RoleAssistant {
			continue
		}
		kept = append(kept, domain.ChatMessage{Role: role, Content: content})
	}
	if max >= 0 && len(kept) > max {
		kept = kept[len(kept)-max:]
	}
	return kept
}

func buildChatMessages(history []domain.ChatMessage, message string) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: buildSystemPrompt()})
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: message})
	return messages
}
