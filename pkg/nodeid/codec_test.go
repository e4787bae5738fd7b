package nodeid

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples = []Identity{
	Root{Solution: "/repo/App.sln"},
	Project{Solution: "/repo/App.sln", ProjectID: "{22222222-2222-2222-2222-222222222222}", Path: "/repo/src/Core/Core.csproj"},
	Directory{ProjectID: "{22222222-2222-2222-2222-222222222222}", Path: "/repo/src/Core/Models"},
	File{ProjectID: "{22222222-2222-2222-2222-222222222222}", Path: "/repo/src/Core/Models/User.cs"},
	GroupingFolder{Solution: "/repo/App.sln", FolderID: "{11111111-1111-1111-1111-111111111111}"},
	GroupedItem{FolderID: "{33333333-3333-3333-3333-333333333333}", Path: "README.md"},
	DependencyContainer{ProjectID: "{22222222-2222-2222-2222-222222222222}"},
	DependencyCategory{ProjectID: "{22222222-2222-2222-2222-222222222222}", Category: "packages"},
	Dependency{ProjectID: "{22222222-2222-2222-2222-222222222222}", Category: "packages", Name: "Newtonsoft.Json", Version: "13.0.3"},
	Root{},
	File{ProjectID: "", Path: "ünïcode/ファイル.txt"},
}

func TestRoundTrip(t *testing.T) {
	for _, id := range samples {
		t.Run(id.Kind().String(), func(t *testing.T) {
			token, err := Encode(id)
			require.NoError(t, err)
			got, err := Decode(token)
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestTokensArePlainText(t *testing.T) {
	for _, id := range samples {
		token := MustEncode(id)
		assert.NotEmpty(t, token)
		assert.Equal(t, -1, strings.IndexFunc(token, func(r rune) bool {
			return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_')
		}), "token %q", token)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	for _, id := range samples {
		assert.Equal(t, MustEncode(id), MustEncode(id))
	}
	a := MustEncode(Directory{ProjectID: "{A}", Path: "/x"})
	b := MustEncode(File{ProjectID: "{A}", Path: "/x"})
	assert.NotEqual(t, a, b, "kinds with the same fields must not collide")
}

func TestTransientsNeverCollide(t *testing.T) {
	parent := GroupingFolder{Solution: "/repo/App.sln", FolderID: "{11111111-1111-1111-1111-111111111111}"}
	a, err := NewTransient(parent, "folder")
	require.NoError(t, err)
	b, err := NewTransient(parent, "folder")
	require.NoError(t, err)
	assert.NotEqual(t, MustEncode(a), MustEncode(b))

	decoded, err := Decode(MustEncode(a))
	require.NoError(t, err)
	got, ok := decoded.(Transient)
	require.True(t, ok)
	assert.Equal(t, a.Parent, got.Parent)
	assert.Equal(t, a.Nonce, got.Nonce)
	assert.True(t, a.Created.Equal(got.Created))

	back, err := got.ParentIdentity()
	require.NoError(t, err)
	assert.Equal(t, Identity(parent), back)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	valid := MustEncode(Root{Solution: "/repo/App.sln"})
	cases := map[string]string{
		"empty":        "",
		"not base64":   "!!!not base64!!!",
		"not deflate":  base64.RawURLEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd, 0xfc}),
		"truncated":    valid[:len(valid)/2],
		"plain text":   base64.RawURLEncoding.EncodeToString([]byte("hello")),
		"padded token": valid + "==",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			var id Identity
			var err error
			require.NotPanics(t, func() { id, err = Decode(token) })
			assert.Nil(t, id)
			var derr *DecodeError
			require.True(t, errors.As(err, &derr), "got %v", err)
			assert.Equal(t, token, derr.Token)
			assert.NotEmpty(t, derr.Reason)
		})
	}
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
}
