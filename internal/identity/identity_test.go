package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("secret", "clinic")
	id := Identity{UserID: uuid.New(), Role: RolePatient}

	tok, err := m.Issue(id, time.Hour)
	require.NoError(t, err)

	got, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerify_Rejects(t *testing.T) {
	m := NewManager("secret", "clinic")
	id := Identity{UserID: uuid.New(), Role: RoleDoctor}

	otherSecret, err := NewManager("other", "clinic").Issue(id, time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewManager("secret", "elsewhere").Issue(id, time.Hour)
	require.NoError(t, err)

	expiredMgr := NewManager("secret", "clinic")
	expiredMgr.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredMgr.Issue(id, time.Hour)
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret": otherSecret,
		"wrong issuer": otherIssuer,
		"expired":      expired,
		"garbage":      "not-a-token",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssue_UnknownRole(t *testing.T) {
	_, err := NewManager("s", "i").Issue(Identity{UserID: uuid.New(), Role: "nurse"}, time.Minute)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = BearerToken("")
	assert.False(t, ok)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	id := Identity{UserID: uuid.New(), Role: RoleAdmin}
	got, ok := FromContext(WithIdentity(context.Background(), id))
	require.True(t, ok)
	assert.Equal(t, id, got)
}
