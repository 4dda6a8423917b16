package pipeline

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleCategory separates the two kinds of phrase signals.
type RuleCategory string

const (
	// CategoryAgentPhrase marks scripted/formal language typical for agents.
	CategoryAgentPhrase RuleCategory = "agent_phrase"
	// CategoryCustomerResponse marks short affirmative/negative replies
	// typical for customers.
	CategoryCustomerResponse RuleCategory = "customer_response"
)

// Rule is one declarative phrase-scoring entry. The classifier is a pure
// fold over an ordered rule table, so individual rules stay unit-testable.
type Rule struct {
	Pattern  string       `yaml:"pattern"`
	Weight   float64      `yaml:"weight"`
	Category RuleCategory `yaml:"category"`
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// RuleSet is a compiled, ordered phrase-rule table.
type RuleSet struct {
	agent    []compiledRule
	customer []compiledRule
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// CompileRules validates and compiles an ordered rule table.
func CompileRules(rules []Rule) (*RuleSet, error) {
	rs := &RuleSet{}
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: compile pattern %q: %w", i, r.Pattern, err)
		}
		cr := compiledRule{Rule: r, re: re}
		switch r.Category {
		case CategoryAgentPhrase:
			rs.agent = append(rs.agent, cr)
		case CategoryCustomerResponse:
			rs.customer = append(rs.customer, cr)
		default:
			return nil, fmt.Errorf("rule %d: unknown category %q", i, r.Category)
		}
	}
	return rs, nil
}

// LoadRules reads a rule table from a YAML file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules YAML: %w", err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rules file %q defines no rules", path)
	}
	return CompileRules(rf.Rules)
}

// MatchedAgentRules returns how many distinct agent-phrase rules match the
// text, plus the summed weight of those matches.
func (rs *RuleSet) MatchedAgentRules(text string) (int, float64) {
	lowered := strings.ToLower(text)
	var count int
	var weight float64
	for _, r := range rs.agent {
		if r.re.MatchString(lowered) {
			count++
			weight += r.Weight
		}
	}
	return count, weight
}

// CustomerResponseWeight returns the weight of the first customer-response
// rule matching the text, and whether any matched.
func (rs *RuleSet) CustomerResponseWeight(text string) (float64, bool) {
	lowered := strings.ToLower(text)
	for _, r := range rs.customer {
		if r.re.MatchString(lowered) {
			return r.Weight, true
		}
	}
	return 0, false
}

// DefaultRules returns the built-in Polish call-center rule table.
func DefaultRules() *RuleSet {
	rs, err := CompileRules(defaultRuleTable)
	if err != nil {
		panic(fmt.Sprintf("built-in rule table does not compile: %v", err))
	}
	return rs
}

const (
	agentPhraseWeight      = 3.0
	customerResponseWeight = -2.0
)

var defaultRuleTable = buildDefaultRuleTable()

func buildDefaultRuleTable() []Rule {
	agentPatterns := []string{
		// Greetings & intro
		`dzień dobry`,
		`dzwonię z`,
		`dzwonię ze`,
		`dzwonię w sprawie`,
		`nazywam się`,
		`mam na imię`,
		// Sales language
		`czy mogę zaproponować`,
		`mogę zaproponować`,
		`chciał\w*bym zaproponować`,
		`w promocyjnej cenie`,
		`w promocji`,
		`promocja`,
		`rabat`,
		`gratis`,
		`w cenie`,
		`kuracja`,
		`bestseller`,
		`opakowanie`,
		`opakowań`,
		// Prices & numbers
		`\d+\s*zł`,
		`\d+\s*złotych`,
		`kosztuje`,
		`oszczędność`,
		`za opakowanie`,
		`za pobraniem`,
		`płatność`,
		`metoda płatności`,
		// Order & delivery
		`dane dostawy`,
		`adres dostawy`,
		`numer zamówienia`,
		`potwierdzam zamówienie`,
		`w sprawie zamówienia`,
		`wysyłam`,
		`wysyłka`,
		`kurier`,
		`paczka`,
		`przesyłka`,
		// Formal phrases
		`potrzebuję potwierdzenia`,
		`muszę potwierdzić`,
		`czy wszystko się zgadza`,
		`czy wyraża pan\w* zgodę`,
		`czy wyraża pani zgodę`,
		`proszę pan\w`,
		`regulamin`,
		`reklamacja`,
		`gwarancja`,
		// Closing
		`miłego dnia`,
		`dziękuję za rozmowę`,
		`do widzenia`,
		`życzę miłego`,
	}
	customerPatterns := []string{
		`^tak[.,!]?\s*$`,
		`^nie[.,!]?\s*$`,
		`^no\s*$`,
		`^no tak\s*$`,
		`^no nie\s*$`,
		`^no dobrze`,
		`^no niech będzie`,
		`^niech będzie`,
		`^dokładnie`,
		`^dobrze`,
		`^ok\b`,
		`^okej`,
		`^trudno`,
		`^halo`,
		`^to znaczy`,
		`^mhm`,
		`^aha`,
		`^uhm`,
		`^no właśnie`,
		`^zgadza się`,
		`^jasne`,
		`^rozumiem`,
		`^a ile`,
		`^no to`,
		`^yyyy`,
	}

	rules := make([]Rule, 0, len(agentPatterns)+len(customerPatterns))
	for _, p := range agentPatterns {
		rules = append(rules, Rule{Pattern: p, Weight: agentPhraseWeight, Category: CategoryAgentPhrase})
	}
	for _, p := range customerPatterns {
		rules = append(rules, Rule{Pattern: p, Weight: customerResponseWeight, Category: CategoryCustomerResponse})
	}
	return rules
}
