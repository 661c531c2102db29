package sqlite

import (
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
)

type seenDomainRow struct {
	DomainName  string    `gorm:"primaryKey"`
	DropDate    time.Time `gorm:"not null;index"`
	TLD         string    `gorm:"not null"`
	Source      string    `gorm:"not null"`
	FirstSeenAt time.Time `gorm:"not null"`
}

func (seenDomainRow) TableName() string { return "seen_domains" }

func (r seenDomainRow) toDomain() *domain.SeenDomain {
	return &domain.SeenDomain{
		DomainName:  r.DomainName,
		DropDate:    r.DropDate.UTC(),
		TLD:         r.TLD,
		Source:      domain.Source(r.Source),
		FirstSeenAt: r.FirstSeenAt.UTC(),
	}
}

type purchaseAttemptRow struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	DomainName   string    `gorm:"not null;index:idx_attempt_domain"`
	TLD          string    `gorm:"not null"`
	OrderID      *string
	Status       string    `gorm:"not null;index:idx_attempt_status"`
	ErrorMessage *string
	AttemptedAt  time.Time `gorm:"not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (purchaseAttemptRow) TableName() string { return "purchase_attempts" }

func (r purchaseAttemptRow) toDomain() *domain.PurchaseAttempt {
	return &domain.PurchaseAttempt{
		ID:           r.ID,
		DomainName:   r.DomainName,
		TLD:          r.TLD,
		OrderID:      r.OrderID,
		Status:       domain.PurchaseStatus(r.Status),
		ErrorMessage: r.ErrorMessage,
		AttemptedAt:  r.AttemptedAt.UTC(),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type runSummaryRow struct {
	RunID      string    `gorm:"primaryKey"`
	Trigger    string
	Status     string
	Fetched    int
	Admitted   int
	Selected   int
	Succeeded  int
	Failed     int
	Error      string
	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time
	DurationMs int64
}

func (runSummaryRow) TableName() string { return "run_summaries" }

func (r runSummaryRow) toDomain() *domain.RunSummary {
	return &domain.RunSummary{
		RunID:      r.RunID,
		Trigger:    r.Trigger,
		Status:     domain.RunStatus(r.Status),
		Fetched:    r.Fetched,
		Admitted:   r.Admitted,
		Selected:   r.Selected,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Error:      r.Error,
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		DurationMs: r.DurationMs,
	}
}
