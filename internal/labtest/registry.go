package labtest

// ParameterDef is one expected result parameter with its clinical reference
// metadata. Unit and normal range are reference data presented alongside the
// measured value; they are never user input.
type ParameterDef struct {
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	NormalRange string `json:"normal_range"`
}

// Schema is the fixed ordered parameter set for one test type. FreeText
// schemas carry no parameters and accept a single text blob instead.
type Schema struct {
	Type       TestType       `json:"test_type"`
	Parameters []ParameterDef `json:"parameters,omitempty"`
	FreeText   bool           `json:"free_text"`
}

// schemas is the single source of truth for every result shape. The table is
// package-private and only handed out by copy so concurrent callers can never
// observe each other's edits.
var schemas = map[TestType][]ParameterDef{
	TypeBiochemistry: {
		{"АЛТ", "Ед/л", "0-40"},
		{"АСТ", "Ед/л", "0-38"},
		{"Билирубин общий", "мкмоль/л", "8.5-20.5"},
		{"Билирубин прямой", "мкмоль/л", "0-5.1"},
		{"Глюкоза", "ммоль/л", "4.2-6.4"},
		{"Мочевина", "ммоль/л", "2.5-8.3"},
		{"Креатинин", "мкмоль/л", "53-115"},
		{"Общий белок", "г/л", "65-85"},
		{"Холестерин", "ммоль/л", "3.6-5.2"},
		{"Амилаза", "Ед/л", "25-125"},
	},
	TypeBloodCount: {
		{"Гемоглобин", "г/л", "120-160"},
		{"Эритроциты", "10^12/л", "3.9-5.5"},
		{"Цветовой показатель", "", "0.85-1.05"},
		{"Лейкоциты", "10^9/л", "4.0-9.0"},
		{"Тромбоциты", "10^9/л", "180-320"},
		{"СОЭ", "мм/ч", "2-15"},
		{"Гематокрит", "%", "36-48"},
		{"Палочкоядерные", "%", "1-6"},
		{"Сегментоядерные", "%", "47-72"},
		{"Эозинофилы", "%", "0.5-5"},
		{"Моноциты", "%", "3-11"},
		{"Лимфоциты", "%", "19-37"},
	},
	TypeVitaminD: {
		{"Витамин D (25-OH)", "нг/мл", "30-100"},
	},
	TypeTORCH: {
		{"Toxoplasma gondii IgG", "МЕ/мл", "отриц."},
		{"Toxoplasma gondii IgM", "МЕ/мл", "отриц."},
		{"Rubella IgG", "МЕ/мл", "отриц."},
		{"Rubella IgM", "МЕ/мл", "отриц."},
		{"CMV IgG", "МЕ/мл", "отриц."},
		{"CMV IgM", "МЕ/мл", "отриц."},
		{"HSV 1/2 IgG", "МЕ/мл", "отриц."},
		{"HSV 1/2 IgM", "МЕ/мл", "отриц."},
	},
	TypeUrine: {
		{"Цвет", "", "соломенно-желтый"},
		{"Прозрачность", "", "прозрачная"},
		{"Удельный вес", "", "1010-1025"},
		{"Реакция (pH)", "", "5.0-7.0"},
		{"Белок", "г/л", "отсутствует"},
		{"Глюкоза", "ммоль/л", "отсутствует"},
		{"Лейкоциты", "в п/зр", "0-5"},
		{"Эритроциты", "в п/зр", "0-2"},
		{"Эпителий плоский", "в п/зр", "0-5"},
		{"Цилиндры", "в п/зр", "отсутствуют"},
		{"Соли", "", "отсутствуют"},
		{"Бактерии", "", "отсутствуют"},
	},
	TypeHormone: {
		{"ТТГ", "мкМЕ/мл", "0.4-4.0"},
		{"Т3 свободный", "пмоль/л", "2.6-5.7"},
		{"Т4 свободный", "пмоль/л", "9.0-22.0"},
		{"Пролактин", "нг/мл", "4.8-23.3"},
		{"Кортизол", "нмоль/л", "138-635"},
	},
	TypeOncomarker: {
		{"ПСА общий", "нг/мл", "0-4.0"},
		{"АФП", "МЕ/мл", "0-10"},
		{"РЭА", "нг/мл", "0-5.0"},
		{"СА 125", "Ед/мл", "0-35"},
		{"СА 19-9", "Ед/мл", "0-37"},
	},
	TypeCoagulogram: {
		{"Протромбиновое время", "сек", "11-16"},
		{"ПТИ", "%", "80-105"},
		{"МНО", "", "0.85-1.15"},
		{"АЧТВ", "сек", "25-35"},
		{"Фибриноген", "г/л", "2.0-4.0"},
	},
	TypeLipid: {
		{"Холестерин общий", "ммоль/л", "3.6-5.2"},
		{"ЛПВП", "ммоль/л", "0.9-1.9"},
		{"ЛПНП", "ммоль/л", "1.7-3.5"},
		{"Триглицериды", "ммоль/л", "0.4-1.8"},
		{"Коэффициент атерогенности", "", "2.2-3.5"},
	},
	TypeProcalcitonin: {
		{"Прокальцитонин", "нг/мл", "<0.05"},
	},
	TypeTroponin: {
		{"Тропонин I", "нг/мл", "0-0.029"},
	},
}

// SchemaFor returns the schema registered for a tag. The generic tag (and any
// unknown tag) yields the free-text schema. The parameter slice is a fresh
// copy on every call.
func SchemaFor(t TestType) Schema {
	defs, ok := schemas[t]
	if !ok {
		return Schema{Type: TypeGeneric, FreeText: true}
	}
	params := make([]ParameterDef, len(defs))
	copy(params, defs)
	return Schema{Type: t, Parameters: params}
}

// SchemaForName classifies a test name and returns the matching schema.
func SchemaForName(testName string) Schema {
	return SchemaFor(Classify(testName))
}
