package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_MergeDoesNotAlias(t *testing.T) {
	base := Record{"id": "1", "name": "Acme", "city": "Cebu"}
	merged := base.Merge(Record{"name": "Acme Corp"})

	assert.Equal(t, Record{"id": "1", "name": "Acme Corp", "city": "Cebu"}, merged)
	assert.Equal(t, "Acme", base["name"])
	assert.Equal(t, "1", merged.ID())
}

func TestRecord_IDNonString(t *testing.T) {
	assert.Equal(t, "", Record{"id": 7.0}.ID())
	assert.Equal(t, "", Record{}.ID())
}

func TestDecodeRows(t *testing.T) {
	rows := []Record{
		{"id": "t1", "title": "Follow up", "priority": "High", "status": "Todo", "extra": true},
		{"id": "t2", "title": "Report", "priority": "Low", "status": "Done"},
	}
	tasks, err := DecodeRows[Task](rows)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Follow up", tasks[0].Title)
	assert.Equal(t, "Done", tasks[1].Status)
}

func TestEncodeRow_RoundTripsProfile(t *testing.T) {
	rec, err := EncodeRow(Profile{ID: "u1", Email: "a@b.co", Role: RoleOwner, AccessRights: FullAccess})
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.ID())
	assert.Equal(t, []any{"*"}, rec["access_rights"])
}

func TestError_IsByKind(t *testing.T) {
	custom := Errorf(KindNoRows, "nothing here")
	assert.True(t, errors.Is(custom, ErrNoRows))
	assert.False(t, errors.Is(custom, ErrUserNotFound))
	assert.Equal(t, "No rows found", ErrNoRows.Error())
}

func TestAvatarURL(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		email    string
		want     string
	}{
		{name: "full name", fullName: "James Quek", want: "seed=james-quek&"},
		{name: "email fallback", email: "main@tnd-opc.com", want: "seed=main%40tnd-opc.com&"},
		{name: "default seed", want: "seed=agent&"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, AvatarURL(tt.fullName, tt.email), tt.want)
		})
	}
}

func TestUserMetadata_AccessRights(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, UserMetadata{"access_rights": []any{"a", "b"}}.AccessRights())
	assert.Equal(t, []string{"*"}, UserMetadata{"access_rights": []string{"*"}}.AccessRights())
	assert.Nil(t, UserMetadata{}.AccessRights())
}

func TestNewOrderSpec(t *testing.T) {
	assert.Equal(t, OrderSpec{Field: "name", Ascending: true}, NewOrderSpec("name"))
	assert.Equal(t, OrderSpec{Field: "name", Ascending: false}, NewOrderSpec("name", Descending()))
	assert.Equal(t, OrderSpec{Field: "name", Ascending: true}, NewOrderSpec("name", Ascending(true)))
}
