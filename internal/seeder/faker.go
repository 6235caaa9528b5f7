package seeder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rana718/botseed/internal/schema"
	"github.com/brianvoe/gofakeit/v7"
)

// ValueProvider supplies leaf values for scalar fields.
type ValueProvider interface {
	RandomString(hint string) (string, error)
	RandomEnum(values []string) (string, error)
	RandomTimestamp(w schema.Window) (time.Time, error)
	RandomText(hint string) (string, error)
}

// localeData holds what a locale changes. Empty lists fall back to the
// gofakeit English generators.
type localeData struct {
	segment string
	script  string
	phone   string // '#' becomes a digit

	maleFirst, maleLast     []string
	femaleFirst, femaleLast []string
	words                   []string
}

var locales = map[string]localeData{
	"en": {segment: "Segment %s", script: "Script %s"},
	"ru": {
		segment:     "Сегмент %s",
		script:      "Сценарий %s",
		phone:       "+7 (9##) ###-##-##",
		maleFirst:   []string{"Александр", "Дмитрий", "Максим", "Сергей", "Андрей", "Алексей", "Иван", "Михаил", "Никита", "Егор"},
		maleLast:    []string{"Иванов", "Смирнов", "Кузнецов", "Попов", "Васильев", "Петров", "Соколов", "Михайлов", "Новиков", "Фёдоров"},
		femaleFirst: []string{"Анна", "Мария", "Елена", "Ольга", "Наталья", "Татьяна", "Екатерина", "Ирина", "Светлана", "Дарья"},
		femaleLast:  []string{"Иванова", "Смирнова", "Кузнецова", "Попова", "Васильева", "Петрова", "Соколова", "Михайлова", "Новикова", "Фёдорова"},
		words: []string{
			"клиент", "заказ", "доставка", "оплата", "вопрос", "ответ", "менеджер", "заявка", "звонок", "статус",
			"товар", "скидка", "договор", "счёт", "консультация", "подписка", "акция", "сообщение", "бот", "чат",
			"новый", "срочный", "повторный", "уточнить", "подтвердить", "отправить", "получить", "связаться", "сегодня", "завтра",
		},
	},
}

// FakeProvider is a ValueProvider backed by gofakeit. Domain hints pick the
// generator; unknown hints fall back to a single word.
type FakeProvider struct {
	faker  *gofakeit.Faker
	locale localeData
}

// NewFakeProvider returns a provider for locale. A zero seed draws a random one.
func NewFakeProvider(locale string, seed uint64) (*FakeProvider, error) {
	data, ok := locales[strings.ToLower(locale)]
	if !ok {
		return nil, &ValueProviderError{Hint: "locale", Err: fmt.Errorf("no data for locale %q", locale)}
	}
	return &FakeProvider{
		faker:  gofakeit.New(seed),
		locale: data,
	}, nil
}

func (p *FakeProvider) RandomString(hint string) (string, error) {
	switch strings.ToLower(hint) {
	case "name":
		return p.name(), nil
	case "email":
		return p.faker.Email(), nil
	case "phone":
		if p.locale.phone != "" {
			return p.faker.Numerify(p.locale.phone), nil
		}
		return p.faker.Phone(), nil
	case "segment":
		return fmt.Sprintf(p.locale.segment, capitalize(p.word())), nil
	case "script":
		return fmt.Sprintf(p.locale.script, capitalize(p.word())), nil
	case "url":
		return p.faker.URL(), nil
	default:
		return p.word(), nil
	}
}

func (p *FakeProvider) name() string {
	l := p.locale
	if len(l.maleFirst) == 0 {
		return p.faker.Name()
	}
	if p.faker.Bool() {
		return p.faker.RandomString(l.femaleFirst) + " " + p.faker.RandomString(l.femaleLast)
	}
	return p.faker.RandomString(l.maleFirst) + " " + p.faker.RandomString(l.maleLast)
}

func (p *FakeProvider) word() string {
	if len(p.locale.words) == 0 {
		return p.faker.Word()
	}
	return p.faker.RandomString(p.locale.words)
}

func (p *FakeProvider) RandomEnum(values []string) (string, error) {
	if len(values) == 0 {
		return "", &ValueProviderError{Hint: "enum", Err: errors.New("empty value set")}
	}
	return p.faker.RandomString(values), nil
}

func (p *FakeProvider) RandomTimestamp(w schema.Window) (time.Time, error) {
	if w.From.After(w.To) {
		return time.Time{}, &ValueProviderError{
			Hint: "timestamp",
			Err:  fmt.Errorf("window starts at %s after it ends at %s", w.From.Format(time.RFC3339), w.To.Format(time.RFC3339)),
		}
	}
	if w.From.Equal(w.To) {
		return w.From, nil
	}
	return p.faker.DateRange(w.From, w.To), nil
}

func (p *FakeProvider) RandomText(hint string) (string, error) {
	switch strings.ToLower(hint) {
	case "paragraph":
		sentences := make([]string, 5)
		for i := range sentences {
			sentences[i] = p.sentence(p.faker.Number(6, 12))
		}
		return strings.Join(sentences, " "), nil
	case "settings":
		return fmt.Sprintf(`{"api_key":"%s","webhook_url":"%s"}`, p.faker.UUID(), p.faker.URL()), nil
	case "sentence":
		return p.sentence(10), nil
	default:
		return p.sentence(p.faker.Number(4, 10)), nil
	}
}

func (p *FakeProvider) sentence(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = p.word()
	}
	parts[0] = capitalize(parts[0])
	return strings.Join(parts, " ") + "."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
