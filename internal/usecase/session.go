package usecase

import (
	"fmt"
	"strings"

	"furnish/internal/domain"
)

// PrepareSession validates a request and returns a private, normalised copy
// of the session: history trimmed to the newest window turns and last_shown
// de-duplicated by id and capped at k. The caller's slices are not touched.
func PrepareSession(utterance string, session domain.SessionContext, window, k int) (domain.SessionContext, error) {
	if strings.TrimSpace(utterance) == "" {
		return domain.SessionContext{}, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}

	for i, t := range session.History {
		if t.Role != domain.RoleUser && t.Role != domain.RoleAssistant {
			return domain.SessionContext{}, fmt.Errorf("%w: history turn %d has unknown role %q", domain.ErrValidation, i, t.Role)
		}
	}

	out := session.Clone()
	out.History = trimHistory(out.History, window)

	seen := make(map[string]struct{}, len(out.LastShown))
	shown := make([]domain.Item, 0, len(out.LastShown))
	for _, it := range out.LastShown {
		if strings.TrimSpace(it.ID) == "" {
			return domain.SessionContext{}, fmt.Errorf("%w: shown item %q has no id", domain.ErrValidation, it.Title)
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		shown = append(shown, it)
	}
	if k > 0 && len(shown) > k {
		shown = shown[len(shown)-k:]
	}
	out.LastShown = shown
	return out, nil
}

// AppendTurns records the exchange and trims from the oldest end.
func AppendTurns(history []domain.Turn, user, assistant string, window int) []domain.Turn {
	out := make([]domain.Turn, 0, len(history)+2)
	out = append(out, history...)
	out = append(out,
		domain.Turn{Role: domain.RoleUser, Text: user},
		domain.Turn{Role: domain.RoleAssistant, Text: assistant},
	)
	return trimHistory(out, window)
}

func trimHistory(history []domain.Turn, window int) []domain.Turn {
	if window > 0 && len(history) > window {
		return history[len(history)-window:]
	}
	return history
}
