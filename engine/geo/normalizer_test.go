package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("Should expand street abbreviations", func(t *testing.T) {
		got := Normalize("Центральная ул., д.3")
		assert.Contains(t, got, "улица")
		assert.Contains(t, got, "дом 3")
	})

	t.Run("Should expand region abbreviations", func(t *testing.T) {
		got := Normalize("Лен. обл. гп. Новоселье, ул. Питерская, д.1")
		assert.Contains(t, got, "Ленинградская область")
		assert.NotContains(t, got, "гп.")
	})

	t.Run("Should expand city abbreviations", func(t *testing.T) {
		assert.Contains(t, Normalize("СПб, Невский пр. 10"), "Санкт-Петербург")
		assert.Contains(t, Normalize("Мск, Тверская ул. 1"), "Москва")
	})

	t.Run("Should expand building qualifiers", func(t *testing.T) {
		got := Normalize("ул. Мира, д.5, корп. 2")
		assert.Contains(t, got, "корпус 2")
	})

	t.Run("Should strip apartment, phone and entrance noise", func(t *testing.T) {
		got := Normalize("Центральная ул., д.3, подъезд 1, кв.45 +79110000000")
		assert.NotContains(t, got, "подъезд")
		assert.NotContains(t, got, "кв")
		assert.NotContains(t, got, "79110000000")
	})

	t.Run("Should strip ticket numbers and priority keywords", func(t *testing.T) {
		got := Normalize("№1173544 Текущая. Центральная ул., д.3")
		assert.NotContains(t, got, "1173544")
		assert.NotContains(t, got, "Текущая")
	})

	t.Run("Should drop defect-vocabulary segments", func(t *testing.T) {
		got := Normalize("Центральная ул., д.3. Не работает брелок. Сломан домофон")
		assert.Contains(t, got, "Центральная")
		assert.NotContains(t, got, "брелок")
		assert.NotContains(t, got, "домофон")
	})

	t.Run("Should never return empty for non-empty input", func(t *testing.T) {
		got := Normalize("Не работает домофон")
		assert.NotEmpty(t, strings.TrimSpace(got))
	})

	t.Run("Should collapse whitespace and comma spacing", func(t *testing.T) {
		got := Normalize("Центральная   ул. ,  д.3")
		assert.NotContains(t, got, "  ")
		assert.NotContains(t, got, " ,")
	})

	t.Run("Should be deterministic", func(t *testing.T) {
		in := "Лен. обл. Центральная ул., д.3, корп. 1"
		assert.Equal(t, Normalize(in), Normalize(in))
	})
}
