package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		text string
		want Type
	}{
		{"kaufland cyrillic", "КАУФЛАНД БЪЛГАРИЯ ЕООД\nСофия", Kaufland},
		{"kaufland latin", "KAUFLAND Bulgaria\nSofia", Kaufland},
		{"lidl", "ЛИДЛ БЪЛГАРИЯ ЕООД ЕНД КО КД", Lidl},
		{"billa", "БИЛЛА БЪЛГАРИЯ ЕООД", Billa},
		{"fantastico", "ФАНТАСТИКО ГРУП", Fantastico},
		{"tmarket spaced", "Т МАРКЕТ ЕООД", TMarket},
		{"metro", "МЕТРО КЕШ ЕНД КЕРИ", Metro},
		{"case insensitive", "кауфланд българия", Kaufland},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := r.Detect(tt.text)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Type)
		})
	}
}

func TestDetectUnknownRetailer(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Detect("МАГАЗИН ЗА ХРАНИТЕЛНИ СТОКИ\nул. Витоша 1"))
}

func TestDetectRegistrationOrderTieBreak(t *testing.T) {
	r := NewRegistry()
	// Text mentioning two retailers resolves to the earlier registration.
	f := r.Detect("КАУФЛАНД приема ваучери от ЛИДЛ")
	require.NotNil(t, f)
	assert.Equal(t, Kaufland, f.Type)
}

func TestPatternsFallBackToGeneric(t *testing.T) {
	r := NewRegistry()

	// Billa registers no store-specific item patterns.
	assert.Equal(t, r.GenericPatterns(), r.Patterns(Billa))
	assert.Equal(t, r.GenericPatterns(), r.Patterns(Generic))
	assert.NotEqual(t, r.GenericPatterns(), r.Patterns(Kaufland))
}

func TestGenericItemPatterns(t *testing.T) {
	r := NewRegistry()

	type match struct {
		line  string
		name  string
		price string
	}
	lines := []match{
		{"ХЛЯБ ДОБРУДЖА 1.20", "ХЛЯБ ДОБРУДЖА", "1.20"},
		{"ПРЯСНО МЛЯКО 3,2% 2,45 Б", "ПРЯСНО МЛЯКО 3,2%", "2,45"},
		{"БАНАНИ 3800065703125 2.50", "БАНАНИ", "2.50"},
	}

	for _, m := range lines {
		matched := false
		for _, pat := range r.GenericPatterns() {
			groups := pat.Pattern.FindStringSubmatch(m.line)
			if groups == nil {
				continue
			}
			matched = true
			assert.Equal(t, m.name, groups[pat.NameGroup], "line %q pattern %q", m.line, pat.Description)
			assert.Equal(t, m.price, groups[pat.PriceGroup], "line %q pattern %q", m.line, pat.Description)
			break
		}
		assert.True(t, matched, "no pattern matched %q", m.line)
	}
}

func TestTotalPatternsPerStore(t *testing.T) {
	r := NewRegistry()

	f := r.Detect("КАУФЛАНД БЪЛГАРИЯ")
	require.NotNil(t, f)

	found := ""
	for _, p := range f.TotalPatterns {
		if m := p.FindStringSubmatch("ОБЩА СУМА 15,40"); m != nil {
			found = m[1]
			break
		}
	}
	assert.Equal(t, "15,40", found)
}
