package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func ledgerTotalHandlers() repository.ModelHandlers[*ledgerTotalRecord] {
	return repository.ModelHandlers[*ledgerTotalRecord]{
		NewRecord: func() *ledgerTotalRecord {
			return &ledgerTotalRecord{}
		},
		GetID: func(record *ledgerTotalRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *ledgerTotalRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *ledgerTotalRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func processedEventHandlers() repository.ModelHandlers[*processedEventRecord] {
	return repository.ModelHandlers[*processedEventRecord]{
		NewRecord: func() *processedEventRecord {
			return &processedEventRecord{}
		},
		GetID: func(record *processedEventRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.EventID)
		},
		SetID: func(record *processedEventRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.EventID = id.String()
		},
		GetIdentifier: func() string {
			return "event_id"
		},
		GetIdentifierValue: func(record *processedEventRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.EventID)
		},
	}
}

func latestPaymentHandlers() repository.ModelHandlers[*latestPaymentRecord] {
	return repository.ModelHandlers[*latestPaymentRecord]{
		NewRecord: func() *latestPaymentRecord {
			return &latestPaymentRecord{}
		},
		GetID: func(record *latestPaymentRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *latestPaymentRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *latestPaymentRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
