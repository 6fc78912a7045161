package labtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyKnownNames(t *testing.T) {
	cases := []struct {
		name string
		want TestType
	}{
		{"Биохимияи хун", TypeBiochemistry},
		{"Biochemistry panel", TypeBiochemistry},
		{"Таҳлили умумии хун", TypeBloodCount},
		{"Общий анализ крови", TypeBloodCount},
		{"ОАК", TypeBloodCount},
		{"CBC", TypeBloodCount},
		{"Витамин D (25-OH)", TypeVitaminD},
		{"Витамин Д", TypeVitaminD},
		{"TORCH-инфексияҳо", TypeTORCH},
		{"Таҳлили пешоб", TypeUrine},
		{"ОАМ", TypeUrine},
		{"Анализ мочи", TypeUrine},
		{"Гормонҳои сипаршакл", TypeHormone},
		{"ТТГ", TypeHormone},
		{"Онкомаркерҳо", TypeOncomarker},
		{"ПСА", TypeOncomarker},
		{"Коагулограмма", TypeCoagulogram},
		{"Липидный профиль", TypeLipid},
		{"Прокальцитонин", TypeProcalcitonin},
		{"Тропонин I", TypeTroponin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.name))
		})
	}
}

func TestClassifyRulePrecedence(t *testing.T) {
	// Biochemistry panels mention blood too; the biochemistry rule must win.
	assert.Equal(t, TypeBiochemistry, Classify("Биохимияи қон"))
	// A name carrying both a blood and a hormone keyword resolves to blood.
	assert.Equal(t, TypeBloodCount, Classify("Таҳлили қон ба гормон"))
}

func TestClassifyCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, TypeBloodCount, Classify("  ТАҲЛИЛИ ҚОН  "))
	assert.Equal(t, TypeLipid, Classify("LIPID PANEL"))
}

func TestClassifyFallsBackToGeneric(t *testing.T) {
	assert.Equal(t, TypeGeneric, Classify(""))
	assert.Equal(t, TypeGeneric, Classify("   "))
	assert.Equal(t, TypeGeneric, Classify("Консультация невролога"))
}

func TestClassifyIsDeterministic(t *testing.T) {
	name := "Биохимияи хун ва таҳлили қон"
	first := Classify(name)
	for i := 0; i < 50; i++ {
		require.Equal(t, first, Classify(name))
	}
}
