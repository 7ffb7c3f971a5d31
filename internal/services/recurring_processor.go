package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"financas/internal/core"
	"financas/internal/store"
)

// RecurringProcessor carries recurring incomes forward: every recurring
// income of the previous month gets a copy in the target month on the same
// day, clamped to the month's last day.
type RecurringProcessor struct {
	svc *FinanceService

	mu      sync.Mutex
	carried map[core.MonthKey]map[string]bool
}

func NewRecurringProcessor(svc *FinanceService) *RecurringProcessor {
	return &RecurringProcessor{svc: svc, carried: make(map[core.MonthKey]map[string]bool)}
}

// ProcessMonth creates the missing copies for target and returns how many
// were created. Running it twice for the same month creates nothing new.
//
// A key carried (or found present) once for a month is remembered for the
// life of the process, so deleting a carried copy does not bring it back on
// the next tick. After a restart the month is evaluated again; clearing the
// recurring flag on the template is what stops the series.
func (p *RecurringProcessor) ProcessMonth(ctx context.Context, target core.MonthKey) (int, error) {
	if p.svc == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := target.Prev()

	templates, err := p.svc.ListIncomes(ctx, store.IncomeFilter{Month: &prev, RecurringOnly: true})
	if err != nil {
		return 0, fmt.Errorf("load recurring incomes for %s: %w", prev, err)
	}
	if len(templates) == 0 {
		return 0, nil
	}
	existing, err := p.svc.ListIncomes(ctx, store.IncomeFilter{Month: &target})
	if err != nil {
		return 0, fmt.Errorf("load incomes for %s: %w", target, err)
	}

	seen := p.carried[target]
	if seen == nil {
		seen = make(map[string]bool, len(existing))
		p.carried[target] = seen
	}
	for _, in := range existing {
		seen[recurringKey(in)] = true
	}

	created := 0
	for _, tpl := range templates {
		if seen[recurringKey(tpl)] {
			continue
		}
		inc, err := p.svc.CreateIncome(ctx, IncomeInput{
			Description: tpl.Description,
			Amount:      tpl.Amount,
			Date:        clampDay(target, tpl.Date.Day()),
			ReceivedBy:  tpl.ReceivedBy,
			Category:    tpl.Category,
			IsRecurring: true,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to carry recurring income forward",
				"template_id", tpl.ID,
				"month", target.String(),
				"error", err)
			continue
		}
		seen[recurringKey(tpl)] = true
		created++
		slog.InfoContext(ctx, "Created income from recurring template",
			"template_id", tpl.ID,
			"income_id", inc.ID,
			"amount_cents", inc.Amount.Cents,
			"date", inc.Date.String())
	}

	slog.InfoContext(ctx, "Recurring income processing complete",
		"month", target.String(),
		"created", created,
		"templates", len(templates))
	return created, nil
}

// recurringKey identifies "the same" income across months.
func recurringKey(in core.Income) string {
	return strings.ToLower(in.Description) + "|" + string(in.ReceivedBy) + "|" + strings.ToLower(in.Category)
}

// clampDay handles target days that don't exist in the month (e.g. the 31st in April).
func clampDay(month core.MonthKey, day int) core.Date {
	if last := month.Days(); day > last {
		day = last
	}
	return core.NewDate(month.Year, month.Month, day)
}
