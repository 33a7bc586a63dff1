// Package products recognizes canonical Bulgarian grocery products in noisy
// OCR text and sanity-checks parsed prices against expected ranges.
//
// The catalog is static and read-only after construction, so it can be shared
// across concurrent extraction attempts without locking.
package products

import "strings"

// Product is one canonical catalog entry. MinPrice/MaxPrice bound the
// plausible unit price in leva; a zero range means no price evidence is
// registered for the product.
type Product struct {
	Name         string
	Alternatives []string
	Keywords     []string
	Misspellings []string
	Category     string
	MinPrice     float64
	MaxPrice     float64
}

// Category names used by the catalog.
const (
	CategoryBakery    = "Хляб и тестени"
	CategoryDairy     = "Млечни продукти"
	CategoryProduce   = "Плодове и зеленчуци"
	CategoryMeat      = "Месо и риба"
	CategoryBeverages = "Напитки"
	CategorySweets    = "Сладки и десерти"
	CategoryPantry    = "Основни храни"
	CategoryHousehold = "Домакински"
	CategoryOther     = "Other"
)

func builtinProducts() []Product {
	return []Product{
		{
			Name:         "ХЛЯБ",
			Alternatives: []string{"ХЛЯБ ДОБРУДЖА", "ХЛЯБ БЯЛ", "ХЛЯБ ПЪЛНОЗЪРНЕСТ", "ПИТКА"},
			Keywords:     []string{"ХЛЯБ", "БАГЕТА", "ПИТКА"},
			Misspellings: []string{"ХЛЕБ", "ХЛRБ", "ХПЯБ"},
			Category:     CategoryBakery,
			MinPrice:     0.80,
			MaxPrice:     3.50,
		},
		{
			Name:         "ПРЯСНО МЛЯКО",
			Alternatives: []string{"МЛЯКО ПРЯСНО", "ПРЯСНО МЛЯКО 3.6%", "ПРЯСНО МЛЯКО 2%"},
			Keywords:     []string{"ПРЯСНО МЛЯКО", "МЛЯКО"},
			Misspellings: []string{"МЛEКО", "МПЯКО", "МЛЯК0"},
			Category:     CategoryDairy,
			MinPrice:     1.80,
			MaxPrice:     4.50,
		},
		{
			Name:         "КИСЕЛО МЛЯКО",
			Alternatives: []string{"КИС. МЛЯКО", "КИСЕЛО МЛЯКО 3.6%", "КИСЕЛО МЛЯКО 2%"},
			Keywords:     []string{"КИСЕЛО МЛЯКО", "КИС МЛЯКО"},
			Misspellings: []string{"КИСЕПО МЛЯКО"},
			Category:     CategoryDairy,
			MinPrice:     0.80,
			MaxPrice:     3.00,
		},
		{
			Name:         "СИРЕНЕ",
			Alternatives: []string{"СИРЕНЕ КРАВЕ", "СИРЕНЕ ОВЧЕ", "БЯЛО СИРЕНЕ"},
			Keywords:     []string{"СИРЕНЕ"},
			Misspellings: []string{"СИРЕHЕ", "CИРЕНЕ"},
			Category:     CategoryDairy,
			MinPrice:     8.00,
			MaxPrice:     25.00,
		},
		{
			Name:         "КАШКАВАЛ",
			Alternatives: []string{"КАШКАВАЛ ВИТОША", "КАШКАВАЛ ОТ КРАВЕ МЛЯКО"},
			Keywords:     []string{"КАШКАВАЛ"},
			Misspellings: []string{"КАШКАВАП", "КАШКАВАЛ."},
			Category:     CategoryDairy,
			MinPrice:     10.00,
			MaxPrice:     35.00,
		},
		{
			Name:         "ЯЙЦА",
			Alternatives: []string{"ЯЙЦА M", "ЯЙЦА L", "ЯЙЦА 10БР"},
			Keywords:     []string{"ЯЙЦА", "ЯЙЦЕ"},
			Misspellings: []string{"ЯИЦА"},
			Category:     CategoryPantry,
			MinPrice:     2.00,
			MaxPrice:     9.00,
		},
		{
			Name:         "МАСЛО",
			Alternatives: []string{"КРАВЕ МАСЛО", "МАСЛО 125Г"},
			Keywords:     []string{"КРАВЕ МАСЛО", "МАСЛО"},
			Misspellings: []string{"МАСПО"},
			Category:     CategoryDairy,
			MinPrice:     2.50,
			MaxPrice:     8.00,
		},
		{
			Name:         "ОЛИО",
			Alternatives: []string{"СЛЪНЧОГЛЕДОВО ОЛИО", "ОЛИО 1Л"},
			Keywords:     []string{"ОЛИО"},
			Misspellings: []string{"ОЛИ0", "0ЛИО"},
			Category:     CategoryPantry,
			MinPrice:     2.50,
			MaxPrice:     7.00,
		},
		{
			Name:         "ЗАХАР",
			Keywords:     []string{"ЗАХАР"},
			Misspellings: []string{"3АХАР"},
			Category:     CategoryPantry,
			MinPrice:     1.20,
			MaxPrice:     4.00,
		},
		{
			Name:         "БРАШНО",
			Alternatives: []string{"БРАШНО ТИП 500", "ПШЕНИЧНО БРАШНО"},
			Keywords:     []string{"БРАШНО"},
			Misspellings: []string{"БРАШН0"},
			Category:     CategoryPantry,
			MinPrice:     1.00,
			MaxPrice:     4.50,
		},
		{
			Name:         "ОРИЗ",
			Keywords:     []string{"ОРИЗ"},
			Misspellings: []string{"ОРИ3"},
			Category:     CategoryPantry,
			MinPrice:     1.50,
			MaxPrice:     6.00,
		},
		{
			Name:         "БАНАНИ",
			Alternatives: []string{"БАНАНИ КГ", "БАНАН"},
			Keywords:     []string{"БАНАН"},
			Misspellings: []string{"БАНАHИ", "6АНАНИ"},
			Category:     CategoryProduce,
			MinPrice:     1.50,
			MaxPrice:     4.50,
		},
		{
			Name:         "ЯБЪЛКИ",
			Alternatives: []string{"ЯБЪЛКИ КГ", "ЯБЪЛКА"},
			Keywords:     []string{"ЯБЪЛК"},
			Misspellings: []string{"Я6ЪЛКИ"},
			Category:     CategoryProduce,
			MinPrice:     1.20,
			MaxPrice:     5.00,
		},
		{
			Name:         "ДОМАТИ",
			Alternatives: []string{"ДОМАТИ КГ", "ДОМАТИ ОРАНЖЕРИЙНИ"},
			Keywords:     []string{"ДОМАТ"},
			Misspellings: []string{"Д0МАТИ"},
			Category:     CategoryProduce,
			MinPrice:     1.50,
			MaxPrice:     8.00,
		},
		{
			Name:         "КРАСТАВИЦИ",
			Alternatives: []string{"КРАСТАВИЦИ КГ"},
			Keywords:     []string{"КРАСТАВИЦ"},
			Misspellings: []string{"КРАСТАВНЦИ"},
			Category:     CategoryProduce,
			MinPrice:     1.50,
			MaxPrice:     7.00,
		},
		{
			Name:         "ПИЛЕШКО ФИЛЕ",
			Alternatives: []string{"ПИЛЕ ФИЛЕ", "ПИЛЕШКИ ГЪРДИ"},
			Keywords:     []string{"ПИЛЕШКО", "ПИЛЕ"},
			Misspellings: []string{"ПИЛЕШК0"},
			Category:     CategoryMeat,
			MinPrice:     6.00,
			MaxPrice:     18.00,
		},
		{
			Name:         "КАЙМА",
			Alternatives: []string{"КАЙМА СМЕС", "КАЙМА ТЕЛЕШКА"},
			Keywords:     []string{"КАЙМА"},
			Misspellings: []string{"КАИМА"},
			Category:     CategoryMeat,
			MinPrice:     5.00,
			MaxPrice:     16.00,
		},
		{
			Name:         "МИНЕРАЛНА ВОДА",
			Alternatives: []string{"ВОДА МИНЕРАЛНА", "ВОДА 1.5Л"},
			Keywords:     []string{"МИНЕРАЛНА ВОДА", "ВОДА"},
			Misspellings: []string{"В0ДА"},
			Category:     CategoryBeverages,
			MinPrice:     0.40,
			MaxPrice:     2.50,
		},
		{
			Name:         "БИРА",
			Alternatives: []string{"БИРА КЕН", "ПИВО"},
			Keywords:     []string{"БИРА", "ПИВО"},
			Misspellings: []string{"6ИРА"},
			Category:     CategoryBeverages,
			MinPrice:     1.00,
			MaxPrice:     6.00,
		},
		{
			Name:         "КАФЕ",
			Alternatives: []string{"КАФЕ МЛЯНО", "КАФЕ НА ЗЪРНА"},
			Keywords:     []string{"КАФЕ"},
			Misspellings: []string{"КАФE"},
			Category:     CategoryBeverages,
			MinPrice:     3.00,
			MaxPrice:     25.00,
		},
		{
			Name:         "ШОКОЛАД",
			Alternatives: []string{"ШОКОЛАД МЛЕЧЕН", "ШОКОЛАД НАТУРАЛЕН"},
			Keywords:     []string{"ШОКОЛАД"},
			Misspellings: []string{"Ш0КОЛАД"},
			Category:     CategorySweets,
			MinPrice:     1.50,
			MaxPrice:     9.00,
		},
		{
			Name:         "СЛАДОЛЕД",
			Alternatives: []string{"СЛАДОЛЕД ВАНИЛИЯ", "СЛАДОЛЕД МИНИ КЛАСИК"},
			Keywords:     []string{"СЛАДОЛЕД"},
			Misspellings: []string{"СЛАД0ЛЕД", "СЛАДОЛЕПД"},
			Category:     CategorySweets,
			MinPrice:     1.50,
			MaxPrice:     15.00,
		},
		{
			Name:         "БИСКВИТИ",
			Alternatives: []string{"БИСКВИТИ ЗАКУСКА"},
			Keywords:     []string{"БИСКВИТ"},
			Misspellings: []string{"6ИСКВИТИ"},
			Category:     CategorySweets,
			MinPrice:     1.00,
			MaxPrice:     6.00,
		},
	}
}

// categoryKeywords maps keyword fragments to categories for items the catalog
// does not recognize as concrete products.
func categoryKeywords() map[string][]string {
	return map[string][]string{
		CategoryBakery:    {"ХЛЯБ", "ПИТКА", "БАГЕТА", "КОЗУНАК", "ЗАКУСКА", "КРОАСАН"},
		CategoryDairy:     {"МЛЯКО", "СИРЕНЕ", "КАШКАВАЛ", "МАСЛО", "ИЗВАРА", "ЙОГУРТ", "СМЕТАНА"},
		CategoryProduce:   {"БАНАН", "ЯБЪЛК", "ДОМАТ", "КРАСТАВИЦ", "КАРТОФ", "ЛУК", "ПИПЕР", "ГРОЗДЕ", "ПОРТОКАЛ", "ЛИМОН", "МОРКОВ", "ЗЕЛЕ", "САЛАТА"},
		CategoryMeat:      {"ПИЛЕ", "СВИНСК", "ТЕЛЕШК", "КАЙМА", "РИБА", "ФИЛЕ", "ШУНКА", "САЛАМ", "ЛУКАНКА", "НАДЕНИЦ", "КЕБАПЧЕ", "КЮФТЕ"},
		CategoryBeverages: {"ВОДА", "СОК", "БИРА", "ВИНО", "КАФЕ", "ЧАЙ", "КОЛА", "ПИВО", "АЙРЯН", "БОЗА"},
		CategorySweets:    {"ШОКОЛАД", "БОНБОН", "ВАФЛА", "БИСКВИТ", "СЛАДОЛЕД", "ТОРТА", "ЛОКУМ", "МЕД"},
		CategoryPantry:    {"ЗАХАР", "БРАШНО", "ОРИЗ", "СОЛ", "ОЛИО", "ОЦЕТ", "МАКАРОНИ", "СПАГЕТИ", "ЯЙЦА", "БОБ", "ЛЕЩА", "КОНСЕРВА"},
		CategoryHousehold: {"ПРЕПАРАТ", "САПУН", "ШАМПОАН", "ПАСТА ЗА ЗЪБИ", "КЪРПИ", "ТОРБИЧКА", "ПЛИК"},
	}
}

// normalizeName uppercases and collapses whitespace for catalog matching.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(strings.TrimSpace(name))), " ")
}
