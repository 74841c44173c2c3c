// Package assistant implements the rule-based help assistant and its
// per-user conversation history.
package assistant

import (
	"sort"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Rule maps a set of keywords to a canned answer. A small-talk rule answers
// only when no other rule matched.
type Rule struct {
	Intent    string
	Keywords  []string
	Answer    string
	SmallTalk bool
}

// FallbackAnswer is returned when no rule matches
const FallbackAnswer = "Sorry, I did not understand that. Try asking about bookings, orders, payments, documents or your profile."

// DefaultRules is the built-in rule set. Rules that name an action come
// before the subjects they act on, so "cancel my booking" answers cancel.
var DefaultRules = []Rule{
	{
		Intent:    "greeting",
		Keywords:  []string{"hello", "hi", "hey", "good morning", "good evening"},
		Answer:    "Hi! I can help with bookings, orders, payments, invoices and your profile.",
		SmallTalk: true,
	},
	{
		Intent:   "cancel",
		Keywords: []string{"cancel", "cancellation", "refund"},
		Answer:   "Pending and confirmed bookings can be cancelled from My Bookings. Orders can be cancelled until they ship.",
	},
	{
		Intent:   "booking",
		Keywords: []string{"book", "booking", "appointment", "reschedule", "schedule"},
		Answer:   "To book a service open it from the Services page and pick a time. Upcoming bookings are listed under My Bookings.",
	},
	{
		Intent:   "order",
		Keywords: []string{"order", "shipping", "delivery", "track", "shipped"},
		Answer:   "Your orders and their status are under My Orders. Sellers update the status as the order ships.",
	},
	{
		Intent:   "payment",
		Keywords: []string{"pay", "payment", "card", "checkout", "price"},
		Answer:   "Payment is taken at checkout. Receipts appear in Documents once the payment is confirmed.",
	},
	{
		Intent:   "document",
		Keywords: []string{"invoice", "receipt", "statement", "payout", "document"},
		Answer:   "Invoices, receipts and payout statements are in Documents. Open one to view or print it.",
	},
	{
		Intent:   "profile",
		Keywords: []string{"profile", "avatar", "password", "account", "logo"},
		Answer:   "You can update your name, location, avatar and business details from Profile settings.",
	},
	{
		Intent:   "message",
		Keywords: []string{"message", "chat", "contact", "talk"},
		Answer:   "Use Messages to chat with providers and sellers. Start a new conversation by searching a name.",
	},
}

// Reply is the responder's answer
type Reply struct {
	Intent string `json:"intent"`
	Answer string `json:"answer"`
}

// Responder matches user text against keyword rules with an Aho-Corasick
// automaton. The rule with the most keyword hits wins; ties go to the
// earlier rule, and small-talk rules lose to any other match.
type Responder struct {
	matcher   *goahocorasick.Machine
	rules     []Rule
	byKeyword map[string][]int
}

// NewResponder builds the automaton over every rule keyword
func NewResponder(rules []Rule) (*Responder, error) {
	byKeyword := make(map[string][]int)
	for i, rule := range rules {
		for _, kw := range rule.Keywords {
			norm := string(normalize([]rune(kw)))
			if norm == "" {
				continue
			}
			byKeyword[norm] = append(byKeyword[norm], i)
		}
	}

	keywords := make([]string, 0, len(byKeyword))
	for kw := range byKeyword {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	patterns := make([][]rune, len(keywords))
	for i, kw := range keywords {
		patterns[i] = []rune(kw)
	}

	m := new(goahocorasick.Machine)
	if len(patterns) > 0 {
		if err := m.Build(patterns); err != nil {
			return nil, err
		}
	}
	return &Responder{matcher: m, rules: rules, byKeyword: byKeyword}, nil
}

// Respond answers a user message
func (r *Responder) Respond(text string) Reply {
	content := normalize([]rune(text))
	if len(content) == 0 || len(r.byKeyword) == 0 {
		return Reply{Intent: "fallback", Answer: FallbackAnswer}
	}

	hits := make([]int, len(r.rules))
	for _, term := range r.matcher.MultiPatternSearch(content, false) {
		if !isWholeWord(content, term.Pos, len(term.Word)) {
			continue
		}
		for _, idx := range r.byKeyword[string(term.Word)] {
			hits[idx]++
		}
	}

	best := -1
	for i, n := range hits {
		if n == 0 {
			continue
		}
		if best < 0 || r.outranks(i, best, hits) {
			best = i
		}
	}
	if best < 0 {
		return Reply{Intent: "fallback", Answer: FallbackAnswer}
	}
	return Reply{Intent: r.rules[best].Intent, Answer: r.rules[best].Answer}
}

// outranks reports whether rule i beats the current best rule. Rules are
// visited in order, so an equal score keeps the earlier rule.
func (r *Responder) outranks(i, best int, hits []int) bool {
	if r.rules[i].SmallTalk != r.rules[best].SmallTalk {
		return r.rules[best].SmallTalk
	}
	return hits[i] > hits[best]
}

// normalize lowercases letters and digits and collapses everything else into
// single spaces
func normalize(in []rune) []rune {
	out := make([]rune, 0, len(in))
	space := true
	for _, c := range in {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			out = append(out, unicode.ToLower(c))
			space = false
			continue
		}
		if !space {
			out = append(out, ' ')
			space = true
		}
	}
	return []rune(strings.TrimSpace(string(out)))
}

func isWholeWord(content []rune, pos, length int) bool {
	if pos > 0 && content[pos-1] != ' ' {
		return false
	}
	end := pos + length
	if end < len(content) && content[end] != ' ' {
		return false
	}
	return true
}
