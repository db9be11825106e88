package userlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"user-console/internal/domain"
)

const (
	time2s = 2 * time.Second
	tick   = 5 * time.Millisecond
)

func filterNames(users []domain.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
	}
	return names
}

func TestFilter(t *testing.T) {
	users := []domain.User{
		{ID: 1, Name: "Alice", Email: "alice@x.com", IsActive: true},
		{ID: 2, Name: "Bob", Email: "bob@x.com", IsActive: false},
		{ID: 3, Name: "Carol", Email: "carol@corp.io", IsActive: true},
	}

	tests := []struct {
		name   string
		filter domain.UserFilter
		want   []string
	}{
		{"empty filter keeps all", domain.UserFilter{}, []string{"Alice", "Bob", "Carol"}},
		{"name match is case-insensitive", domain.UserFilter{SearchTerm: "ALI"}, []string{"Alice"}},
		{"email match", domain.UserFilter{SearchTerm: "corp"}, []string{"Carol"}},
		{"shared substring", domain.UserFilter{SearchTerm: "x.com"}, []string{"Alice", "Bob"}},
		{"active only", domain.UserFilter{ShowOnlyActive: true}, []string{"Alice", "Carol"}},
		{"active and term", domain.UserFilter{SearchTerm: "b", ShowOnlyActive: true}, []string{}},
		{"whitespace term", domain.UserFilter{SearchTerm: "   "}, []string{"Alice", "Bob", "Carol"}},
		{"no match", domain.UserFilter{SearchTerm: "zed"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterNames(Filter(users, tt.filter)))
		})
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	users := []domain.User{
		{ID: 1, Name: "Alice", IsActive: true},
		{ID: 2, Name: "Bob", IsActive: false},
	}
	before := append([]domain.User(nil), users...)

	_ = Filter(users, domain.UserFilter{ShowOnlyActive: true})
	assert.Equal(t, before, users)
}

func TestContainsFold(t *testing.T) {
	assert.True(t, containsFold("Grüße", "GRÜ"))
	assert.True(t, containsFold("abc", "c"))
	assert.False(t, containsFold("ab", "abc"))
	assert.False(t, containsFold("", "a"))

	// KELVIN SIGN is three bytes and folds to k
	assert.True(t, containsFold("\u212Aelvin", "kel"))
	assert.True(t, containsFold("kelvin", "\u212AEL"))
	assert.False(t, containsFold("\u212A", "kk"))
}
