package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPendingFollowsPriority(t *testing.T) {
	a := Artist{}
	c, ok := a.NextPending()
	assert.True(t, ok)
	assert.Equal(t, CheckContract, c)

	a.Contract = true
	a.ProfileVerified = true
	c, _ = a.NextPending()
	assert.Equal(t, CheckProfileCreated, c)

	a.ProfileCreated, a.PromoLinked, a.PromoRequested = true, true, true
	_, ok = a.NextPending()
	assert.False(t, ok)
}

func TestAttachmentRefRoundTrip(t *testing.T) {
	att := Attachment{ID: "AgAD:x", Kind: "document"}
	ref := att.Ref()
	assert.Equal(t, "tg:document:AgAD:x", ref)
	back, ok := ParseRef(ref)
	assert.True(t, ok)
	assert.Equal(t, att.ID, back.ID)
	assert.Equal(t, att.Kind, back.Kind)

	_, ok = ParseRef("https://disk.yandex.ru/d/abc")
	assert.False(t, ok)
}

func TestParseReleaseType(t *testing.T) {
	rt, ok := ParseReleaseType("альбом")
	assert.True(t, ok)
	assert.Equal(t, ReleaseAlbum, rt)
	rt, ok = ParseReleaseType("single_50_50")
	assert.True(t, ok)
	assert.Equal(t, ReleaseSingle5050, rt)
	_, ok = ParseReleaseType("EP")
	assert.False(t, ok)
}
