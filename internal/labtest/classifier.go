// Package labtest holds the pure laboratory domain core: the test-name
// classifier and the static schema registry. Nothing here touches storage,
// so both halves are deterministic and testable in isolation.
package labtest

import "strings"

// TestType is the canonical category derived from an order's free-text test
// name. The printing subsystem selects its presentation template by the same
// tag, so the tag must be derivable from the name alone.
type TestType string

const (
	TypeBiochemistry  TestType = "biochemistry"
	TypeBloodCount    TestType = "blood_count"
	TypeVitaminD      TestType = "vitamin_d"
	TypeTORCH         TestType = "torch"
	TypeUrine         TestType = "urine"
	TypeHormone       TestType = "hormone"
	TypeOncomarker    TestType = "oncomarker"
	TypeCoagulogram   TestType = "coagulogram"
	TypeLipid         TestType = "lipid"
	TypeProcalcitonin TestType = "procalcitonin"
	TypeTroponin      TestType = "troponin"
	TypeGeneric       TestType = "generic"
)

type rule struct {
	keywords []string
	tag      TestType
}

// classifierRules is evaluated in order; the first rule with any substring
// hit wins. Order matters: a name carrying both "қон" and "гормон" must
// resolve to blood_count, and biochemistry panels mention blood too, so
// biochemistry sits first.
var classifierRules = []rule{
	{[]string{"биохим", "biochem"}, TypeBiochemistry},
	{[]string{"умумии хун", "умумии қон", "таҳлили қон", "оак", "қон", "кровь", "cbc"}, TypeBloodCount},
	{[]string{"витамин d", "витамин д", "vitamin d", "25-oh"}, TypeVitaminD},
	{[]string{"torch", "торч"}, TypeTORCH},
	{[]string{"пешоб", "оам", "моча", "мочи", "urine"}, TypeUrine},
	{[]string{"гормон", "ттг", "hormone"}, TypeHormone},
	{[]string{"онкомаркер", "маркер", "пса", "psa", "афп"}, TypeOncomarker},
	{[]string{"коагул", "coagul"}, TypeCoagulogram},
	{[]string{"липид", "lipid"}, TypeLipid},
	{[]string{"прокальцитонин", "procalcitonin"}, TypeProcalcitonin},
	{[]string{"тропонин", "troponin"}, TypeTroponin},
}

// Classify maps a free-text test name to its canonical tag. The function is
// total: unknown names fall back to the generic free-text type.
func Classify(testName string) TestType {
	name := strings.ToLower(strings.TrimSpace(testName))
	if name == "" {
		return TypeGeneric
	}
	for _, r := range classifierRules {
		for _, kw := range r.keywords {
			if strings.Contains(name, kw) {
				return r.tag
			}
		}
	}
	return TypeGeneric
}
