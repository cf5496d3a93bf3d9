package project

import (
	"testing"

	"github.com/reachiq/csv-sync/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNewPropertyKeySetFiltersReservedFields(t *testing.T) {
	keys := NewPropertyKeySet([]string{"name", "@timestamp", "2fa_enabled", "email", "", "company_website"})

	assert.True(t, keys.Contains("name"))
	assert.True(t, keys.Contains("email"))
	assert.True(t, keys.Contains("company_website"))
	assert.False(t, keys.Contains("@timestamp"))
	assert.False(t, keys.Contains("2fa_enabled"))
	assert.False(t, keys.Contains(""))
}

func TestProjectKeepsOnlyIntersection(t *testing.T) {
	row := model.RowRecord{
		"name":            "Acme",
		"company_website": "acme.com",
		"internal_notes":  "drop me",
	}
	keys := NewPropertyKeySet([]string{"name", "company_website", "country"})

	draft := Project(row, model.FamilyCompany, keys)

	assert.Equal(t, model.FamilyCompany, draft.Family)
	assert.Equal(t, map[string]string{"name": "Acme", "company_website": "acme.com"}, draft.Fields)
	for k := range draft.Fields {
		assert.True(t, keys.Contains(k))
		assert.Contains(t, row, k)
	}
}

func TestProjectEmptyIntersection(t *testing.T) {
	row := model.RowRecord{"foo": "1", "bar": "2"}
	keys := NewPropertyKeySet([]string{"email"})

	draft := Project(row, model.FamilyRecord, keys)

	assert.Empty(t, draft.Fields)
	assert.Equal(t, model.FamilyRecord, draft.Family)
}
