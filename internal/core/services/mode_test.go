package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

func TestClassifyMode(t *testing.T) {
	rules := domain.DefaultModeRules()

	tests := []struct {
		name string
		text string
		ui   domain.UIMode
		want domain.Mode
	}{
		{"marker", "/tt generate requirements", domain.UIModeAuto, domain.ModeTT},
		{"marker after whitespace", "  /tt кабельные линии", domain.UIModeAuto, domain.ModeTT},
		{"marker upper case", "/TT кабельные линии", domain.UIModeAuto, domain.ModeTT},
		{"plain question", "Что такое трансформатор?", domain.UIModeAuto, domain.ModeSearch},
		{"multiword keyword", "Нужны технические требования к щиту", domain.UIModeAuto, domain.ModeTT},
		{"keyword any case", "ТРЕБОВАНИЯ к заземлению", domain.UIModeAuto, domain.ModeTT},
		{"keyword inflected", "по требованиям СП", domain.UIModeAuto, domain.ModeTT},
		{"keyword instrumental case", "в соответствии с требованиями ПУЭ", domain.UIModeAuto, domain.ModeTT},
		{"abbreviation prefix of word", "ТТХ насоса", domain.UIModeAuto, domain.ModeTT},
		{"keyword inside word", "нетребования", domain.UIModeAuto, domain.ModeSearch},
		{"abbreviation", "составь ТТ на насос", domain.UIModeAuto, domain.ModeTT},
		{"abbreviation inside word", "мощность 100 ватт", domain.UIModeAuto, domain.ModeSearch},
		{"abbreviation after digit stays inside", "100тт", domain.UIModeAuto, domain.ModeSearch},
		{"marker later in text", "что значит /tt", domain.UIModeAuto, domain.ModeSearch},
		{"ui tt wins", "Что такое трансформатор?", domain.UIModeTT, domain.ModeTT},
		{"ui search wins", "/tt технические требования", domain.UIModeSearch, domain.ModeSearch},
		{"empty text", "", domain.UIModeAuto, domain.ModeSearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyMode(tt.text, tt.ui, rules))
		})
	}
}

func TestClassifyMode_ConfigurableRules(t *testing.T) {
	rules := domain.ModeRules{Marker: "!req", Keywords: []string{"datasheet", " ", ""}}

	assert.Equal(t, domain.ModeTT, ClassifyMode("!req pumps", domain.UIModeAuto, rules))
	assert.Equal(t, domain.ModeTT, ClassifyMode("write a Datasheet", domain.UIModeAuto, rules))
	assert.Equal(t, domain.ModeSearch, ClassifyMode("технические требования", domain.UIModeAuto, rules))
	assert.Equal(t, domain.ModeSearch, ClassifyMode("/tt anything", domain.UIModeAuto, rules))
}

func TestClassifyMode_NoMarker(t *testing.T) {
	rules := domain.ModeRules{}
	assert.Equal(t, domain.ModeSearch, ClassifyMode("/tt", domain.UIModeAuto, rules))
}

func TestStripMarker(t *testing.T) {
	assert.Equal(t, "generate requirements", StripMarker("/tt generate requirements", "/tt"))
	assert.Equal(t, "щит", StripMarker("  /TT   щит ", "/tt"))
	assert.Equal(t, "Что такое трансформатор?", StripMarker(" Что такое трансформатор? ", "/tt"))
	assert.Equal(t, "/tt x", StripMarker("/tt x", ""))
}

func TestQueryText(t *testing.T) {
	assert.Equal(t, "щит", QueryText("/tt щит", "/tt"))
	assert.Equal(t, "/tt", QueryText(" /tt ", "/tt"))
	assert.Equal(t, "вопрос", QueryText(" вопрос", "/tt"))
}
