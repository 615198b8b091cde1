package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hihikaAAa/label-bot/internal/model"
)

func TestParseIDTokens(t *testing.T) {
	for _, k := range []Kind{Take, Finish, Reject, ConfirmReject, AdminDelete, ConfirmDelete, ReleasePage, DeleteRelease, ConfirmDeleteRelease, RemoveUser, ArtistCard} {
		d, err := Parse(ID(k, 42))
		require.NoError(t, err, k)
		assert.Equal(t, k, d.Kind)
		assert.Equal(t, int64(42), d.ID)
	}
}

func TestParseFormKeepsUnderscores(t *testing.T) {
	d, err := Parse(FormValue("single_80_20"))
	require.NoError(t, err)
	assert.Equal(t, Form, d.Kind)
	assert.Equal(t, "single_80_20", d.Value)
}

func TestParseOnboard(t *testing.T) {
	d, err := Parse(OnboardAnswer(7, model.CheckProfileVerified, true))
	require.NoError(t, err)
	assert.Equal(t, Data{Kind: Onboard, ID: 7, Check: model.CheckProfileVerified, Yes: true}, d)

	d, err = Parse("onb_7_contract_no")
	require.NoError(t, err)
	assert.False(t, d.Yes)

	_, err = Parse("onb_7_passport_yes")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "fin", "fin_x", "nope_1", "onb_1_contract"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrUnknown, s)
	}
	d, err := Parse("ign")
	require.NoError(t, err)
	assert.Equal(t, Ignore, d.Kind)
}

func TestFormValueTruncates(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, FormValue(string(long)), MaxLen)
}
