package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeysKeepExtensionAndFolder(t *testing.T) {
	key := AudioObjectKey("My Track (final).mp3")
	assert.True(t, strings.HasPrefix(key, "audio/"), key)
	assert.True(t, strings.HasSuffix(key, ".mp3"), key)
	assert.NotContains(t, key, " ")
	assert.NotContains(t, key, "(")

	key = CoverObjectKey("cover.jpg")
	assert.True(t, strings.HasPrefix(key, "covers/"), key)

	key = ProfileImageObjectKey("me.png")
	assert.True(t, strings.HasPrefix(key, "profiles/"), key)
}

func TestObjectKeysAreUnique(t *testing.T) {
	first := AudioObjectKey("track.mp3")
	second := AudioObjectKey("track.mp3")
	assert.NotEqual(t, first, second)
}

func TestObjectKeyHostileFilenames(t *testing.T) {
	key := AudioObjectKey("../../etc/passwd")
	assert.True(t, strings.HasPrefix(key, "audio/"), key)
	assert.NotContains(t, key, "..")
	assert.NotContains(t, key, "/etc/")

	key = AudioObjectKey("")
	assert.True(t, strings.HasPrefix(key, "audio/file_"), key)
	assert.True(t, strings.HasSuffix(key, ".dat"), key)
}
