package schema

import "time"

const (
	User          = "User"
	Integration   = "Integration"
	Segment       = "Segment"
	ContactSource = "ContactSource"
	Contact       = "Contact"
	BotScript     = "BotScript"
	Messenger     = "Messenger"
	Conversation  = "Conversation"
	Message       = "Message"
	Task          = "Task"
)

const (
	IntegrationCRM       = "CRM"
	IntegrationMessenger = "Messenger"

	StatusActive    = "active"
	StatusCompleted = "completed"

	SenderBot    = "bot"
	SenderClient = "client"
)

// BotPlatform declares the customer-engagement bot model.
func BotPlatform() *Schema {
	return New(
		&Entity{
			Name:  User,
			Table: "users",
			Fields: withTimestamps(
				Field{Name: "name", Kind: KindString, Hint: "name"},
				Field{Name: "email", Kind: KindString, Hint: "email"},
				Field{Name: "role", Kind: KindEnum, Values: []string{"manager", "administrator"}, Cycle: true},
			),
			Derivations: []Derivation{updatedAfterCreated},
		},
		&Entity{
			Name:  Integration,
			Table: "integrations",
			Fields: withTimestamps(
				Field{Name: "name", Kind: KindEnum, Values: []string{"AmoCRM", "Bitrix24", "GetCourse", "ChatApp", "Umnico"}, Cycle: true},
				Field{Name: "type", Kind: KindEnum, Values: []string{IntegrationCRM, IntegrationMessenger}, Cycle: true},
				Field{Name: "settings", Kind: KindText, Hint: "settings"},
				Field{Name: "is_active", Kind: KindBool, Default: true},
			),
			Derivations: []Derivation{updatedAfterCreated},
		},
		&Entity{
			Name:  Segment,
			Table: "segments",
			Fields: withTimestamps(
				Field{Name: "name", Kind: KindString, Hint: "segment"},
				Field{Name: "description", Kind: KindText, Hint: "sentence"},
			),
			Derivations: []Derivation{updatedAfterCreated},
		},
		&Entity{
			Name:  ContactSource,
			Table: "contact_sources",
			Fields: withTimestamps(
				Field{Name: "name", Kind: KindEnum, Values: []string{"Manual upload", "AmoCRM", "Bitrix24"}, Cycle: true},
			),
			Relations: []Relation{
				{Column: "integration_id", Target: Integration, Optional: true, Pins: Values{"type": IntegrationCRM}},
			},
			Derivations: []Derivation{updatedAfterCreated},
		},
		&Entity{
			Name:  Contact,
			Table: "contacts",
			Fields: withTimestamps(
				Field{Name: "name", Kind: KindString, Hint: "name"},
				Field{Name: "phone", Kind: KindString, Hint: "phone"},
				Field{Name: "email", Kind: KindString, Hint: "email"},
			),
			Relations: []Relation{
				{Column: "source_id", Target: ContactSource, Optional: true},
				{Column: "segment_id", Target: Segment, Optional: true},
			},
			Derivations: []Derivation{updatedAfterCreated},
		},
		&Entity{
			Name:  BotScript,
			Table: "bot_scripts",
			Fields: withTimestamps(
				Field{Name: "name", Kind: KindString, Hint: "script"},
				Field{Name: "content", Kind: KindText, Hint: "paragraph"},
			),
			Derivations: []Derivation{updatedAfterCreated},
		},
		&Entity{
			Name:  Messenger,
			Table: "messengers",
			Fields: withTimestamps(
				Field{Name: "name", Kind: KindEnum, Values: []string{"ChatApp", "Umnico", "WhatsApp", "Telegram"}, Cycle: true},
				Field{Name: "is_active", Kind: KindBool, Default: true},
			),
			Relations: []Relation{
				{Column: "integration_id", Target: Integration, Pins: Values{"type": IntegrationMessenger}},
			},
			Derivations: []Derivation{updatedAfterCreated},
		},
		&Entity{
			Name:  Conversation,
			Table: "conversations",
			Fields: []Field{
				{Name: "status", Kind: KindEnum, Values: []string{StatusActive, StatusCompleted}, Cycle: true},
				{Name: "started_at", Kind: KindTimestamp},
				{Name: "ended_at", Kind: KindTimestamp, Nullable: true},
			},
			Relations: []Relation{
				{Column: "contact_id", Target: Contact},
				{Column: "messenger_id", Target: Messenger},
				{Column: "script_id", Target: BotScript},
			},
			Derivations: []Derivation{
				{Field: "ended_at", From: "status", Fn: endedWhenCompleted},
			},
		},
		&Entity{
			Name:  Message,
			Table: "messages",
			Fields: []Field{
				{Name: "sender", Kind: KindEnum, Values: []string{SenderBot, SenderClient}, Cycle: true},
				{Name: "message_text", Kind: KindText, Hint: "sentence"},
				{Name: "timestamp", Kind: KindTimestamp},
				{Name: "is_ai_generated", Kind: KindBool},
			},
			Relations: []Relation{
				{Column: "conversation_id", Target: Conversation},
			},
			Derivations: []Derivation{
				{Field: "is_ai_generated", From: "sender", Fn: aiWhenBot},
			},
		},
		&Entity{
			Name:  Task,
			Table: "tasks",
			Fields: withTimestamps(
				Field{Name: "description", Kind: KindText, Hint: "sentence"},
				Field{Name: "status", Kind: KindEnum, Values: []string{"new", "in_progress", "completed"}, Cycle: true},
			),
			Relations: []Relation{
				{Column: "contact_id", Target: Contact},
				{Column: "user_id", Target: User, Pins: Values{"role": "manager"}},
				{Column: "crm_id", Target: Integration, Pins: Values{"type": IntegrationCRM}},
			},
			Derivations: []Derivation{updatedAfterCreated},
		},
	)
}

func withTimestamps(fields ...Field) []Field {
	return append(fields,
		Field{Name: "created_at", Kind: KindTimestamp},
		Field{Name: "updated_at", Kind: KindTimestamp},
	)
}

var updatedAfterCreated = Derivation{Field: "updated_at", From: "created_at", Fn: notBefore("created_at")}

// notBefore samples a timestamp between the value of field and now.
func notBefore(field string) DeriveFunc {
	return func(v Values, s Sampler) (any, error) {
		from, ok := v[field].(time.Time)
		if !ok {
			return s.Now(), nil
		}
		now := s.Now()
		if !from.Before(now) {
			return from, nil
		}
		return s.RandomTimestamp(Window{From: from, To: now})
	}
}

func endedWhenCompleted(v Values, s Sampler) (any, error) {
	if v["status"] != StatusCompleted {
		return nil, nil
	}
	return notBefore("started_at")(v, s)
}

func aiWhenBot(v Values, _ Sampler) (any, error) {
	return v["sender"] == SenderBot, nil
}
