package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkaydev/auto-shop/internal/models"
)

// RuleCompleter is the deterministic fallback adapter used when no language
// model is configured. It classifies the latest user message by ordered
// case-insensitive keyword substring tests; the first matching rule wins.
type RuleCompleter struct{}

// NewRuleCompleter returns the keyword-rule adapter.
func NewRuleCompleter() *RuleCompleter { return &RuleCompleter{} }

func (r *RuleCompleter) Name() string { return "rules" }

// ExplainCode answers trouble-code questions from the built-in lookup table,
// so pipelines wired with this adapter never attempt a model call.
func (r *RuleCompleter) ExplainCode(code string) CodeExplanation {
	return lookupCode(code)
}

// rule is one classification branch.
type rule struct {
	keywords []string
	reply    func(name string) string
}

var rules = []rule{
	{
		keywords: []string{"hours", "open"},
		reply: func(name string) string {
			return greet(name) + "We're open " + HoursText() + ". Walk-ins welcome, appointments preferred!"
		},
	},
	{
		keywords: []string{"price", "cost", "quote"},
		reply: func(name string) string {
			return greet(name) + "Here are our standard prices:\n" + MenuText() +
				"Final pricing depends on your vehicle. Want a detailed quote? Call us at " + ShopPhone + "."
		},
	},
	{
		keywords: []string{"appointment", "book", "schedule"},
		reply: func(name string) string {
			return greet(name) + "I can help you book an appointment. What service does your vehicle need, " +
				"and what day works for you? You can also call " + ShopPhone + " to book directly."
		},
	},
	{
		keywords: []string{"location", "address", "directions"},
		reply: func(name string) string {
			return greet(name) + "You'll find us at " + ShopAddress + ". Free customer parking on site."
		},
	},
	{
		keywords: []string{"diagnostic", "check engine", "error code"},
		reply: func(name string) string {
			return greet(name) + "Our full engine diagnostic is $129.99 and takes about an hour. " +
				"If you have a trouble code (like P0300), send it to me and I'll explain what it means."
		},
	},
	{
		keywords: []string{"bmw", "mercedes-benz", "mercedes", "audi", "porsche"},
		reply: func(name string) string {
			return greet(name) + "We specialize in German and European luxury vehicles (BMW, Mercedes-Benz, " +
				"Audi and Porsche) with factory-grade diagnostic equipment and OEM parts."
		},
	},
}

func greet(name string) string {
	if name == "" {
		return ""
	}
	return "Hi " + name + "! "
}

// Complete classifies the most recent user message. Context with a known
// customer name personalizes the reply.
func (r *RuleCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	text := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			text = req.Messages[i].Content
			break
		}
	}
	lower := strings.ToLower(text)
	name := firstName(req.Context.Customer)

	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reply(name), nil
			}
		}
	}

	if name != "" {
		return fmt.Sprintf("Hi %s! Welcome to %s. How can I help with your vehicle today? "+
			"I can answer questions about services, pricing, hours, or help you book an appointment.", name, ShopName), nil
	}
	return fmt.Sprintf("Welcome to %s! How can I help with your vehicle today? "+
		"I can answer questions about services, pricing, hours, or help you book an appointment.", ShopName), nil
}

func firstName(c *models.CustomerSnapshot) string {
	if c == nil || c.Name == "" {
		return ""
	}
	parts := strings.Fields(c.Name)
	return parts[0]
}
