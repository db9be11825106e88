package userlist

import (
	"strings"
	"unicode/utf8"

	"user-console/internal/domain"
)

// Filter returns the users matching f in their original order. users is not
// modified; the result is the only allocation.
func Filter(users []domain.User, f domain.UserFilter) []domain.User {
	term := strings.TrimSpace(f.SearchTerm)
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if f.ShowOnlyActive && !u.IsActive {
			continue
		}
		if term != "" && !containsFold(u.Name, term) && !containsFold(u.Email, term) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// containsFold is a case-insensitive strings.Contains that does not allocate.
// It folds rune by rune, so pairs of different byte width (K and the Kelvin sign) match.
func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	for i := 0; i < len(s); {
		if hasPrefixFold(s[i:], substr) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return false
}

func hasPrefixFold(s, prefix string) bool {
	for prefix != "" {
		if s == "" {
			return false
		}
		_, n := utf8.DecodeRuneInString(s)
		_, m := utf8.DecodeRuneInString(prefix)
		if !strings.EqualFold(s[:n], prefix[:m]) {
			return false
		}
		s, prefix = s[n:], prefix[m:]
	}
	return true
}
