package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		states ChannelStatusMap
		want   Status
	}{
		{
			name:   "no channels",
			states: ChannelStatusMap{},
			want:   StatusPublishing,
		},
		{
			name: "all succeeded",
			states: ChannelStatusMap{
				"facebook": {State: ChannelSucceeded},
				"twitter":  {State: ChannelSucceeded},
			},
			want: StatusPublished,
		},
		{
			name: "one succeeded one failed",
			states: ChannelStatusMap{
				"facebook": {State: ChannelSucceeded},
				"twitter":  {State: ChannelFailed},
			},
			want: StatusPartiallyPublished,
		},
		{
			name: "succeeded beats pending",
			states: ChannelStatusMap{
				"facebook": {State: ChannelSucceeded},
				"twitter":  {State: ChannelPending},
			},
			want: StatusPartiallyPublished,
		},
		{
			name: "all failed",
			states: ChannelStatusMap{
				"facebook": {State: ChannelFailed},
				"twitter":  {State: ChannelFailed},
			},
			want: StatusFailed,
		},
		{
			name: "failed plus pending retry keeps publishing",
			states: ChannelStatusMap{
				"facebook": {State: ChannelFailed},
				"twitter":  {State: ChannelPendingRetry},
			},
			want: StatusPublishing,
		},
		{
			name: "still in flight",
			states: ChannelStatusMap{
				"facebook": {State: ChannelPublishing},
				"twitter":  {State: ChannelPending},
			},
			want: StatusPublishing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.states))
		})
	}
}

func TestSyncChannelStatus(t *testing.T) {
	post := &Post{
		TargetChannels: StringArray{"facebook", "twitter"},
		ChannelStatus: ChannelStatusMap{
			"facebook": {State: ChannelSucceeded, Attempts: 1, ExternalPostID: "fb-1"},
			"email":    {State: ChannelFailed, Attempts: 3},
		},
	}

	post.SyncChannelStatus()

	require.Len(t, post.ChannelStatus, 2)
	// The channel that is no longer targeted is gone, the new one is
	// pending, and the surviving one kept its history.
	assert.NotContains(t, post.ChannelStatus, "email")
	assert.Equal(t, ChannelPending, post.ChannelStatus["twitter"].State)
	assert.Equal(t, "fb-1", post.ChannelStatus["facebook"].ExternalPostID)
}

func TestSyncChannelStatus_NilMap(t *testing.T) {
	post := &Post{TargetChannels: StringArray{"website"}}
	post.SyncChannelStatus()
	require.NotNil(t, post.ChannelStatus)
	assert.Equal(t, ChannelPending, post.ChannelStatus["website"].State)
}

func TestContentVersioning(t *testing.T) {
	post := &Post{}

	_, ok := post.ContentFor("en")
	assert.False(t, ok)

	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	post.AddContent("en", "First draft", t0)
	post.AddContent("en", "Polished copy", t0.Add(time.Hour))
	post.AddContent("es", "Texto en español", t0)

	body, ok := post.ContentFor("en")
	require.True(t, ok)
	assert.Equal(t, "Polished copy", body)

	body, ok = post.ContentFor("es")
	require.True(t, ok)
	assert.Equal(t, "Texto en español", body)

	// Older versions stay around.
	assert.Len(t, post.ContentByLanguage["en"], 2)
	assert.Equal(t, "First draft", post.ContentByLanguage["en"][0].Text)
}

func TestSucceededChannels(t *testing.T) {
	post := &Post{
		TargetChannels: StringArray{"facebook", "twitter", "email"},
		ChannelStatus: ChannelStatusMap{
			"facebook": {State: ChannelSucceeded},
			"twitter":  {State: ChannelFailed},
			"email":    {State: ChannelSucceeded},
		},
	}
	assert.Equal(t, []string{"facebook", "email"}, post.SucceededChannels())
}

func TestStringArrayScan(t *testing.T) {
	var arr StringArray
	require.NoError(t, arr.Scan(`{"media/a.jpg","media/b.jpg"}`))
	assert.Equal(t, StringArray{"media/a.jpg", "media/b.jpg"}, arr)

	require.NoError(t, arr.Scan("{}"))
	assert.Empty(t, arr)

	require.NoError(t, arr.Scan(nil))
	assert.Empty(t, arr)

	assert.Error(t, arr.Scan(42))
}

func TestStringArrayValue(t *testing.T) {
	v, err := StringArray{"facebook", "twitter"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"facebook","twitter"}`, v)

	v, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestChannelStatusMapRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	in := ChannelStatusMap{
		"facebook": {
			State:          ChannelSucceeded,
			Attempts:       2,
			ExternalPostID: "fb-1",
			PublishedAt:    &now,
		},
		"twitter": {
			State:         ChannelFailed,
			Attempts:      3,
			LastError:     "status 401",
			FailureReason: "unauthorized",
		},
	}

	raw, err := in.Value()
	require.NoError(t, err)

	var out ChannelStatusMap
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, ChannelSucceeded, out["facebook"].State)
	assert.Equal(t, "fb-1", out["facebook"].ExternalPostID)
	assert.Equal(t, "unauthorized", out["twitter"].FailureReason)

	// NULL column comes back as an empty, usable map.
	var empty ChannelStatusMap
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
