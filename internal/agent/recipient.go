package agent

import "strings"

// Recipient is a branch the router can choose.
type Recipient string

const (
	RecipientPersonalAssistant           Recipient = "PersonalAssistant"
	RecipientBusinessRequirementsCreator Recipient = "BusinessRequirementsCreator"
	RecipientBusinessAdvisor             Recipient = "BusinessAdvisor"
)

var recipientAliases = map[string]Recipient{
	"personalassistant":           RecipientPersonalAssistant,
	"businessrequirementscreator": RecipientBusinessRequirementsCreator,
	"businessanalyst":             RecipientBusinessRequirementsCreator,
	"businessadvisor":             RecipientBusinessAdvisor,
}

// ParseRecipient maps a router answer to a known recipient, ignoring case
// and whitespace.
func ParseRecipient(name string) (Recipient, bool) {
	r, ok := recipientAliases[normalizeName(name)]
	return r, ok
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}
